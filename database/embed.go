// Package database embed dosyası — migration SQL dosyalarını binary'ye gömer.
//
// Go'nun embed paketi, derleme zamanında dosyaları binary'nin içine gömer.
// Bu sayede deploy edilen binary yanında migration dosyalarına ihtiyaç duymaz.
package database

import "embed"

// EmbeddedMigrations, migrations/ dizinindeki SQL dosyalarını içerir.
// Kök migrations/ dizinini taşır; New bunu kendisi açar — doğrudan
// database.New(path, database.EmbeddedMigrations) ile kullanılır.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
