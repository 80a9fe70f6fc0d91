// Package handlers, HTTP endpoint'lerini barındırır.
//
// Handler'lar incedir: request parse + service çağrısı + response yazma.
// İş kuralı içermezler — hata eşlemesi pkg.Error'da, yetki ve defter
// mantığı services'tadır.
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/services"
)

// contextKey, context.WithValue için özel key tipi.
// string yerine ayrı tip — başka paketlerin key'leriyle çakışma imkansız.
type contextKey string

// UserContextKey, context'te kullanıcı bilgisi taşıyan key.
// AuthMiddleware ekler, handler'lar okur.
const UserContextKey contextKey = "user"

// ServerIDContextKey, context'te aktif sunucu ID'sini taşıyan key.
// ServerMembershipMiddleware ekler.
const ServerIDContextKey contextKey = "server_id"

// isMultipart, Content-Type'ın multipart/form-data olup olmadığını kontrol eder.
// Boundary parametresi içerdiği için tam eşitlik yerine prefix'e bakılır.
func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/form-data")
}

// formFileUpload, multipart form'dan opsiyonel "file" alanını okur.
// Dosya gönderilmediyse (nil, nil, nil) döner.
// Dönen multipart.File caller tarafından kapatılmalıdır.
func formFileUpload(r *http.Request) (*services.FileUpload, multipart.File, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	upload := &services.FileUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	return upload, file, nil
}

// currentUser, context'teki kullanıcıyı döner.
// AuthMiddleware'den geçmiş her istekte mevcuttur.
func currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}
