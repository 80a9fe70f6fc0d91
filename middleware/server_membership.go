// ServerMembershipMiddleware — sunucu üyelik kontrolü.
//
// AuthMiddleware'den SONRA çalışır; URL'den {serverId} parametresini
// alır, üyeliği doğrular ve serverID'yi context'e ekler.
//
// Pozitif sonuçlar kısa TTL ile cache'lenir — sunucu görünümündeki her
// istek için DB'ye gidilmez. Üyelikten çıkarılan kullanıcı en fazla TTL
// süresi kadar stale yetkiyle okuyabilir; yazma tarafı (mesaj gönderme,
// ban) her istekte DB'den kontrol edildiği için etkilenmez.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/seyhanc/kumru/handlers"
	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/pkg/cache"
	"github.com/seyhanc/kumru/repository"
)

const (
	membershipCacheTTL     = 30 * time.Second
	membershipCacheCleanup = 5 * time.Minute
)

// ServerMembershipMiddleware, sunucu üyelik kontrolü middleware'ı.
type ServerMembershipMiddleware struct {
	serverRepo repository.ServerRepository
	cache      *cache.TTLCache[string, bool]
}

// NewServerMembershipMiddleware, constructor.
func NewServerMembershipMiddleware(serverRepo repository.ServerRepository) *ServerMembershipMiddleware {
	return &ServerMembershipMiddleware{
		serverRepo: serverRepo,
		cache:      cache.New[string, bool](membershipCacheTTL, membershipCacheCleanup),
	}
}

// Close, cache'in temizleme goroutine'ini durdurur.
func (m *ServerMembershipMiddleware) Close() {
	m.cache.Close()
}

// Require, sunucu üyeliği zorunlu kılan middleware.
// Üye değilse 403; başarılıysa serverID context'e eklenir.
func (m *ServerMembershipMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		// Go 1.22+ PathValue: route tanımındaki {serverId} parametresi
		serverID := r.PathValue("serverId")
		if serverID == "" {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "serverId is required")
			return
		}

		cacheKey := serverID + ":" + user.ID
		isMember, cached := m.cache.Get(cacheKey)
		if !cached {
			var err error
			isMember, err = m.serverRepo.IsMember(r.Context(), serverID, user.ID)
			if err != nil {
				pkg.ErrorWithMessage(w, http.StatusInternalServerError, "failed to check server membership")
				return
			}
			// Sadece pozitif sonuç cache'lenir — "üye değil" anında
			// davet kabulüyle değişebilir, negatif cache katılımı geciktirirdi
			if isMember {
				m.cache.Set(cacheKey, true)
			}
		}

		if !isMember {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "you are not a member of this server")
			return
		}

		ctx := context.WithValue(r.Context(), handlers.ServerIDContextKey, serverID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
