// Package notify turns workflow outcomes into user-facing notifications and
// decides how each error class is presented.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/apiclient"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type Category string

const (
	CategoryValidation   Category = "validation"
	CategoryAuth         Category = "authentication"
	CategoryBusinessRule Category = "business_rule"
	CategoryTransient    Category = "transient"
)

const (
	RedirectLogin        = "/login"
	RedirectBrandPurpose = "/brand-purpose"
	RedirectSubscription = "/subscription"
)

type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"category,omitempty"`
	Redirect  string    `json:"redirect,omitempty"`
	Blocking  bool      `json:"blocking"`
	Retryable bool      `json:"retryable"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notifier interface {
	Notify(n Notification)
}

// Classify places err in the error taxonomy.
func Classify(err error) Category {
	switch {
	case errors.Is(err, apiclient.ErrValidation):
		return CategoryValidation
	case errors.Is(err, apiclient.ErrUnauthenticated):
		return CategoryAuth
	case errors.Is(err, apiclient.ErrQuotaExceeded), errors.Is(err, apiclient.ErrBrandPurposeMissing):
		return CategoryBusinessRule
	}
	return CategoryTransient
}

// FromError builds the notification for a failed operation.
func FromError(title string, err error) Notification {
	n := Notification{
		Kind:     KindError,
		Title:    title,
		Message:  err.Error(),
		Category: Classify(err),
	}
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		n.Message = apiErr.Message
	}

	switch n.Category {
	case CategoryAuth:
		n.Redirect = RedirectLogin
		n.Blocking = true
	case CategoryBusinessRule:
		n.Blocking = true
		if errors.Is(err, apiclient.ErrBrandPurposeMissing) {
			n.Redirect = RedirectBrandPurpose
		} else {
			n.Redirect = RedirectSubscription
		}
	case CategoryTransient:
		n.Retryable = true
	}
	return n
}

func Success(title, message string) Notification {
	return Notification{Kind: KindSuccess, Title: title, Message: message}
}

func Warning(title, message string) Notification {
	return Notification{Kind: KindWarning, Title: title, Message: message}
}

// Center keeps the most recent notifications for the console and logs each one.
type Center struct {
	mu     sync.Mutex
	items  []Notification
	limit  int
	logger *zap.Logger
	now    func() time.Time
}

func NewCenter(limit int, logger *zap.Logger) *Center {
	if limit <= 0 {
		limit = 50
	}
	return &Center{limit: limit, logger: logger, now: time.Now}
}

func (c *Center) Notify(n Notification) {
	if n.ID == "" {
		if id, err := gonanoid.New(); err == nil {
			n.ID = id
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.now()
	}

	fields := []zap.Field{
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.String("category", string(n.Category)),
	}
	switch n.Kind {
	case KindError:
		c.logger.Error("Notification", fields...)
	case KindWarning:
		c.logger.Warn("Notification", fields...)
	default:
		c.logger.Info("Notification", fields...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
	if len(c.items) > c.limit {
		c.items = c.items[len(c.items)-c.limit:]
	}
}

// List returns notifications newest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	for i, n := range c.items {
		out[len(c.items)-1-i] = n
	}
	return out
}

// Dismiss removes a notification; blocking ones stay until acted upon.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id && !n.Blocking {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops everything, blocking notifications included.
func (c *Center) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
