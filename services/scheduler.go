// services/scheduler.go
package services

import (
	"log"
	"time"

	"zorapad/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *NovelService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish scheduled novels and chapters whose time came
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var novels []models.Novel
			err := s.DB.Where("status = ? AND publish_at <= ?", "scheduled", now).
				Find(&novels).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, n := range novels {
				n.Status = "published"
				n.PublishAt = nil
				if err := s.DB.Save(&n).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish novel %s: %v", n.ID, err)
				} else {
					log.Printf("✅ Auto-published novel: %s", n.Title)
				}
			}

			var chapters []models.Chapter
			err = s.DB.Where("status = ? AND publish_at <= ?", "scheduled", now).
				Find(&chapters).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, ch := range chapters {
				ch.Status = "published"
				ch.PublishAt = nil
				if err := s.DB.Save(&ch).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish chapter %s: %v", ch.ID, err)
				} else {
					log.Printf("✅ Auto-published chapter: %s", ch.Title)
				}
			}
		}),
	)
}
