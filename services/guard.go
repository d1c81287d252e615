// services/guard.go
package services

import (
	"errors"
	"fmt"

	"zorapad/models"

	"gorm.io/gorm"
)

// OwnershipGuard resolves whether a caller is the author of the novel that
// transitively owns a target. It performs reads only; every mutating ledger
// operation consults it first. Lookup misses fail closed as ErrNotFound,
// which is deliberately distinct from ErrForbidden.
type OwnershipGuard struct {
	DB *gorm.DB
}

func NewOwnershipGuard(db *gorm.DB) *OwnershipGuard {
	return &OwnershipGuard{DB: db}
}

// NovelForTarget walks target → chapter → novel and returns the owning novel.
// Supported kinds: comment, reply, request, request_reply.
func (g *OwnershipGuard) NovelForTarget(kind models.TargetKind, targetID string) (*models.Novel, error) {
	switch kind {
	case models.TargetComment:
		var comment models.Comment
		if err := g.DB.First(&comment, "id = ?", targetID).Error; err != nil {
			return nil, wrapLookup(err, "comment")
		}
		return g.novelForChapter(comment.ChapterID)

	case models.TargetReply:
		var reply models.Reply
		if err := g.DB.First(&reply, "id = ?", targetID).Error; err != nil {
			return nil, wrapLookup(err, "reply")
		}
		var comment models.Comment
		if err := g.DB.First(&comment, "id = ?", reply.CommentID).Error; err != nil {
			return nil, wrapLookup(err, "parent comment")
		}
		return g.novelForChapter(comment.ChapterID)

	case models.TargetRequestReply:
		var rr models.RequestReply
		if err := g.DB.First(&rr, "id = ?", targetID).Error; err != nil {
			return nil, wrapLookup(err, "request reply")
		}
		return g.novelForRequest(rr.RequestID)

	case models.TargetRequest:
		return g.novelForRequest(targetID)
	}
	return nil, fmt.Errorf("%w: unknown target kind %q", ErrInvalidInput, kind)
}

// RequireOwner returns nil only when userID is the author of the novel owning
// the target. ErrUnauthorized when no identity, ErrNotFound when any link in
// the ownership chain is missing, ErrForbidden otherwise.
func (g *OwnershipGuard) RequireOwner(userID string, kind models.TargetKind, targetID string) (*models.Novel, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	novel, err := g.NovelForTarget(kind, targetID)
	if err != nil {
		return nil, err
	}
	if novel.AuthorID != userID {
		return nil, ErrForbidden
	}
	return novel, nil
}

// RequireNovelOwner is the direct form for operations addressed to a novel
// itself (requests, chapter mutations).
func (g *OwnershipGuard) RequireNovelOwner(userID, novelID string) (*models.Novel, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	var novel models.Novel
	if err := g.DB.First(&novel, "id = ?", novelID).Error; err != nil {
		return nil, wrapLookup(err, "novel")
	}
	if novel.AuthorID != userID {
		return nil, ErrForbidden
	}
	return &novel, nil
}

func (g *OwnershipGuard) novelForChapter(chapterID string) (*models.Novel, error) {
	var chapter models.Chapter
	if err := g.DB.First(&chapter, "id = ?", chapterID).Error; err != nil {
		return nil, wrapLookup(err, "chapter")
	}
	var novel models.Novel
	if err := g.DB.First(&novel, "id = ?", chapter.NovelID).Error; err != nil {
		return nil, wrapLookup(err, "novel")
	}
	return &novel, nil
}

func (g *OwnershipGuard) novelForRequest(requestID string) (*models.Novel, error) {
	var request models.Request
	if err := g.DB.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, wrapLookup(err, "request")
	}
	var novel models.Novel
	if err := g.DB.First(&novel, "id = ?", request.NovelID).Error; err != nil {
		return nil, wrapLookup(err, "novel")
	}
	return &novel, nil
}

func wrapLookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
