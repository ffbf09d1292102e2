package services

import (
	"context"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"user_portal/internal/models"
)

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func validatePost(title, content string) (string, string, error) {
	title, err := requireText("title", "Title", title)
	if err != nil {
		return "", "", err
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", "", invalid("title", "Title must be at most 100 characters long")
	}
	content, err = requireText("content", "Content", content)
	if err != nil {
		return "", "", err
	}
	return title, content, nil
}

func (s *PostService) Create(ctx context.Context, userID uint, title, content string) (*models.Post, error) {
	title, content, err := validatePost(title, content)
	if err != nil {
		return nil, err
	}
	post := models.Post{
		Title:      title,
		Content:    content,
		UserID:     userID,
		DatePosted: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts newest first. A zero userID lists every post.
func (s *PostService) List(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	query := s.db.WithContext(ctx).Order("date_posted DESC, id DESC")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Find(&posts).Error
	return posts, err
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return &post, nil
}

// Update edits a post owned by the actor; admins may edit any post.
func (s *PostService) Update(ctx context.Context, actor Actor, id uint, title, content *string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if post.UserID != actor.ID && !actor.IsAdmin() {
			return ErrForbidden
		}
		newTitle, newContent := post.Title, post.Content
		if title != nil {
			newTitle = *title
		}
		if content != nil {
			newContent = *content
		}
		var err error
		post.Title, post.Content, err = validatePost(newTitle, newContent)
		if err != nil {
			return err
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if post.UserID != actor.ID && !actor.IsAdmin() {
			return ErrForbidden
		}
		return tx.Delete(&post).Error
	})
}
