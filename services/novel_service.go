// services/novel_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zorapad/models"
	"zorapad/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type NovelService struct {
	DB    *gorm.DB
	Guard *OwnershipGuard
}

func NewNovelService(db *gorm.DB) *NovelService {
	return &NovelService{DB: db, Guard: NewOwnershipGuard(db)}
}

// MinimalNovel is the lightweight listing projection.
type MinimalNovel struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Genre    string `json:"genre"`
	CoverURL string `json:"cover_url"`
	AuthorID string `json:"author_id"`
}

// uniqueSlug derives a URL slug from the title and suffixes it if taken.
func (s *NovelService) uniqueSlug(title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "novel"
	}
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := s.DB.Model(&models.Novel{}).Where("slug = ?", candidate).Count(&count).Error; err != nil || count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// CreateNovel creates a new **draft** novel with optional cover image.
func (s *NovelService) CreateNovel(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	novel := &models.Novel{
		ID:              uuid.NewString(),
		AuthorID:        userID,
		Title:           title,
		Slug:            s.uniqueSlug(title),
		Synopsis:        c.FormValue("synopsis"),
		Genre:           c.FormValue("genre", models.NovelGenreOther),
		ContractAddress: c.FormValue("contract_address"),
		TokenSymbol:     c.FormValue("token_symbol"),
		Status:          "draft",
	}

	// ✅ Cover goes to R2 — small image, CDN-served
	if cover, err := c.FormFile("cover"); err == nil && cover != nil {
		coverExt := filepath.Ext(cover.Filename)
		coverKey := "covers/" + uuid.NewString() + coverExt
		coverURL, upErr := utils.UploadFileToR2(cover, coverKey)
		if upErr != nil {
			log.Printf("Failed to upload cover to R2: %v", upErr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload cover image"})
		}
		novel.CoverURL = coverURL
	}

	if err := s.DB.Create(novel).Error; err != nil {
		log.Printf("DB Error creating novel: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create novel"})
	}

	return c.Status(fiber.StatusCreated).JSON(novel)
}

// GetAllNovels lists published novels with search, genre filter and paging.
func (s *NovelService) GetAllNovels(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("size", "20"))
	if size < 1 || size > 100 {
		size = 20
	}

	query := s.DB.Model(&models.Novel{}).Where("status = ?", "published")

	if genre := c.Query("genre"); genre != "" {
		query = query.Where("genre = ?", genre)
	}

	if q := c.Query("q"); q != "" {
		// Normalize so composed and decomposed accents match the same rows.
		normalized := norm.NFC.String(strings.ToLower(strings.TrimSpace(q)))
		term := "%" + normalized + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(synopsis) LIKE ?", term, term)
	}

	var novels []models.Novel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&novels).Error; err != nil {
		log.Printf("DB Error listing novels: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch novels"})
	}

	res := make([]MinimalNovel, len(novels))
	for i, n := range novels {
		res[i] = MinimalNovel{
			ID: n.ID, Title: n.Title, Slug: n.Slug,
			Genre: n.Genre, CoverURL: n.CoverURL, AuthorID: n.AuthorID,
		}
	}
	return c.JSON(res)
}

// GetNovel fetches one novel by id or slug, chapters included.
func (s *NovelService) GetNovel(c *fiber.Ctx) error {
	idOrSlug := c.Params("id")

	var novel models.Novel
	err := s.DB.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&novel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Novel not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(novel)
}

// UpdateNovel applies partial updates; author only.
func (s *NovelService) UpdateNovel(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	novel, err := s.Guard.RequireNovelOwner(userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title           *string    `json:"title"`
		Synopsis        *string    `json:"synopsis"`
		Genre           *string    `json:"genre"`
		ContractAddress *string    `json:"contract_address"`
		TokenSymbol     *string    `json:"token_symbol"`
		Status          *string    `json:"status"`
		PublishAt       *time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		novel.Title = *req.Title
	}
	if req.Synopsis != nil {
		novel.Synopsis = *req.Synopsis
	}
	if req.Genre != nil {
		novel.Genre = *req.Genre
	}
	if req.ContractAddress != nil {
		novel.ContractAddress = *req.ContractAddress
	}
	if req.TokenSymbol != nil {
		novel.TokenSymbol = *req.TokenSymbol
	}
	if req.Status != nil {
		switch *req.Status {
		case "draft", "scheduled", "published":
			novel.Status = *req.Status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
		}
	}
	if req.PublishAt != nil {
		novel.PublishAt = req.PublishAt
	}

	if err := s.DB.Save(novel).Error; err != nil {
		log.Printf("DB Error updating novel: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update novel"})
	}
	return c.JSON(novel)
}

// DeleteNovel soft deletes a novel; author only.
func (s *NovelService) DeleteNovel(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	novel, err := s.Guard.RequireNovelOwner(userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if err := s.DB.Delete(novel).Error; err != nil {
		log.Printf("DB Error deleting novel: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete novel"})
	}
	return c.JSON(fiber.Map{"message": "Novel deleted successfully"})
}

// CreateChapter uploads chapter text to R2 and records the chapter row.
func (s *NovelService) CreateChapter(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	novel, err := s.Guard.RequireNovelOwner(userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title     string     `json:"title"`
		Number    int        `json:"number"`
		Content   string     `json:"content"`
		Status    string     `json:"status"`
		PublishAt *time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and content are required"})
	}

	if req.Number <= 0 {
		var maxNumber int
		s.DB.Model(&models.Chapter{}).
			Where("novel_id = ?", novel.ID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber)
		req.Number = maxNumber + 1
	}

	status := req.Status
	switch status {
	case "", "draft":
		status = "draft"
	case "scheduled":
		if req.PublishAt == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required for scheduled chapters"})
		}
	case "published":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	chapter := &models.Chapter{
		ID:        uuid.NewString(),
		NovelID:   novel.ID,
		Number:    req.Number,
		Title:     req.Title,
		Status:    status,
		PublishAt: req.PublishAt,
		WordCount: len(strings.Fields(req.Content)),
	}

	contentKey := fmt.Sprintf("chapters/%s/%s.md", novel.ID, chapter.ID)
	contentURL, err := utils.UploadChapterText(req.Content, contentKey)
	if err != nil {
		log.Printf("Failed to upload chapter text to R2: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store chapter text"})
	}
	chapter.ContentKey = contentKey
	chapter.ContentURL = contentURL

	if err := s.DB.Create(chapter).Error; err != nil {
		log.Printf("DB Error creating chapter: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create chapter"})
	}
	return c.Status(fiber.StatusCreated).JSON(chapter)
}

// GetChapters lists a novel's chapters. Readers only see published ones;
// the author sees everything.
func (s *NovelService) GetChapters(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	novelID := c.Params("id")

	var novel models.Novel
	if err := s.DB.First(&novel, "id = ?", novelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Novel not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	query := s.DB.Where("novel_id = ?", novelID)
	if userID != novel.AuthorID {
		query = query.Where("status = ?", "published")
	}

	var chapters []models.Chapter
	if err := query.Order("number ASC").Find(&chapters).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch chapters"})
	}
	return c.JSON(chapters)
}

// ImportManuscript ingests a zip of .txt/.md files as draft chapters, one
// per entry, ordered by filename.
func (s *NovelService) ImportManuscript(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	novel, err := s.Guard.RequireNovelOwner(userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	zipFile, err := c.FormFile("manuscript")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manuscript is required"})
	}
	if zipFile.Size > 100*1024*1024 { // 100MB
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manuscript too large (max 100MB)"})
	}

	// The archive is read in place; nothing user-supplied touches local disk.
	src, err := zipFile.Open()
	if err != nil {
		log.Printf("Failed to open manuscript upload: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read manuscript"})
	}
	defer src.Close()

	entries, err := utils.ExtractManuscript(src, zipFile.Size)
	if err != nil {
		log.Printf("Failed to extract manuscript: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid manuscript archive", "cause": err.Error()})
	}
	if len(entries) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "manuscript contains no .txt or .md chapters"})
	}

	var maxNumber int
	s.DB.Model(&models.Chapter{}).
		Where("novel_id = ?", novel.ID).
		Select("COALESCE(MAX(number), 0)").
		Scan(&maxNumber)

	created := make([]models.Chapter, 0, len(entries))
	for i, entry := range entries {
		chapter := models.Chapter{
			ID:        uuid.NewString(),
			NovelID:   novel.ID,
			Number:    maxNumber + i + 1,
			Title:     entry.Title,
			Status:    "draft",
			WordCount: len(strings.Fields(entry.Content)),
		}
		contentKey := fmt.Sprintf("chapters/%s/%s.md", novel.ID, chapter.ID)
		contentURL, upErr := utils.UploadChapterText(entry.Content, contentKey)
		if upErr != nil {
			log.Printf("Failed to upload imported chapter %q: %v", entry.Title, upErr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store chapter text"})
		}
		chapter.ContentKey = contentKey
		chapter.ContentURL = contentURL
		created = append(created, chapter)
	}

	if err := s.DB.Create(&created).Error; err != nil {
		log.Printf("DB Error creating imported chapters: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create chapters"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Manuscript imported",
		"chapters": created,
	})
}
