// backfill-thumbnails — одноразовая утилита: проставляет thumbnailUrl
// кампаниям, у которых он пуст (видео загружены до появления превью-кадров).
// Для Cloudinary используется покадровая доставка (расширение .jpg),
// для Filestack — CDN-преобразование video_convert.
package main

import (
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/yourusername/campaign-api/internal/config"
	"github.com/yourusername/campaign-api/internal/domain/entity"
	postgresrepo "github.com/yourusername/campaign-api/internal/repository/postgres"
	"github.com/yourusername/campaign-api/pkg/database"
)

const batchSize = 100

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	repo := postgresrepo.NewCampaignRepo(db)

	var fixed, skipped int
	for offset := 0; ; offset += batchSize {
		campaigns, err := repo.List(batchSize, offset)
		if err != nil {
			log.Printf("Failed to list campaigns at offset %d: %v", offset, err)
			os.Exit(1)
		}
		if len(campaigns) == 0 {
			break
		}

		for _, c := range campaigns {
			if c.FullThumbnailUrl != "" {
				continue
			}
			thumb, ok := deriveThumbnail(c)
			if !ok {
				log.Printf("[backfill] %s: не удалось вывести превью из %q, пропуск", c.Slug, c.FullVideoUrl)
				skipped++
				continue
			}
			if _, err := repo.UpdateBySlug(c.Slug, map[string]interface{}{"full_thumbnail_url": thumb}); err != nil {
				log.Printf("[backfill] %s: ошибка обновления: %v", c.Slug, err)
				skipped++
				continue
			}
			log.Printf("[backfill] %s -> %s", c.Slug, thumb)
			fixed++
		}

		if len(campaigns) < batchSize {
			break
		}
	}

	log.Printf("[backfill] готово: обновлено %d, пропущено %d", fixed, skipped)
}

// deriveThumbnail выводит URL превью из URL видео по хосту доставки
func deriveThumbnail(c entity.Campaign) (string, bool) {
	switch {
	case strings.Contains(c.FullVideoUrl, "res.cloudinary.com"):
		ext := path.Ext(c.FullVideoUrl)
		if ext == "" {
			return "", false
		}
		return strings.TrimSuffix(c.FullVideoUrl, ext) + ".jpg", true
	case strings.Contains(c.FullVideoUrl, "cdn.filestackcontent.com"):
		handle := path.Base(c.FullVideoUrl)
		if handle == "" || handle == "." || handle == "/" {
			return "", false
		}
		return fmt.Sprintf("https://cdn.filestackcontent.com/video_convert=preset:thumbnail/%s", handle), true
	default:
		return "", false
	}
}
