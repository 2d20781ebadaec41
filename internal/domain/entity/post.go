package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Comment is embedded in its parent Post document, mirroring how adoption
// requests are embedded in listings.
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	AuthorID  string    `bson:"author_id" json:"author_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Post struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorID  string    `bson:"author_id" json:"author_id"`
	Captions  string    `bson:"captions" json:"captions"`
	ImageURLs []string  `bson:"image_urls" json:"image_urls"`
	Loves     []string  `bson:"loves" json:"loves"`
	Comments  []Comment `bson:"comments" json:"comments"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func NewPost(authorID, captions string, imageURLs []string) (*Post, error) {
	if authorID == "" {
		return nil, fmt.Errorf("%w: author ID cannot be empty", ErrValidation)
	}
	if captions == "" {
		return nil, fmt.Errorf("%w: captions cannot be empty", ErrValidation)
	}
	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("%w: a post must have at least one image", ErrValidation)
	}
	now := time.Now().UTC()
	return &Post{
		AuthorID:  authorID,
		Captions:  captions,
		ImageURLs: imageURLs,
		Loves:     []string{},
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Post) AddComment(authorID, text string) (*Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: comment text cannot be empty", ErrValidation)
	}
	c := Comment{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = time.Now().UTC()
	return &p.Comments[len(p.Comments)-1], nil
}

// ToggleLove likes the post for the user, or removes the like when it is
// already present. Returns true when the post ends up loved.
func (p *Post) ToggleLove(userID string) bool {
	for i, id := range p.Loves {
		if id == userID {
			p.Loves = append(p.Loves[:i], p.Loves[i+1:]...)
			p.UpdatedAt = time.Now().UTC()
			return false
		}
	}
	p.Loves = append(p.Loves, userID)
	p.UpdatedAt = time.Now().UTC()
	return true
}
