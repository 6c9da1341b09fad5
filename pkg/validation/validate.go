// Package validation checks draft payloads against config-driven rules
// before they are persisted.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"draftsync/pkg/models"
)

// Rules describe the accepted shape of a draft payload. Zero values
// disable the corresponding check.
type Rules struct {
	RequireTitle  bool
	MaxTitleLen   int
	MaxCaptionLen int
	ContentTypes  []string
	Platforms     []string
	MaxMediaItems int
}

var rules Rules

func SetRules(r Rules) { rules = r }

// ValidateDraft checks a payload against the active rules. All
// violations are collected into one error so the caller sees the full
// list in a single round trip.
func ValidateDraft(p models.ContentPayload) error {
	var errs []string
	if rules.RequireTitle && strings.TrimSpace(p.Title) == "" {
		errs = append(errs, "title is required")
	}
	if rules.MaxTitleLen > 0 && len(p.Title) > rules.MaxTitleLen {
		errs = append(errs, fmt.Sprintf("title too long: %d > %d", len(p.Title), rules.MaxTitleLen))
	}
	if rules.MaxCaptionLen > 0 && len(p.Caption) > rules.MaxCaptionLen {
		errs = append(errs, fmt.Sprintf("caption too long: %d > %d", len(p.Caption), rules.MaxCaptionLen))
	}
	if len(rules.ContentTypes) > 0 && p.ContentType != "" && !contains(rules.ContentTypes, p.ContentType) {
		errs = append(errs, fmt.Sprintf("invalid content_type: %s", p.ContentType))
	}
	if len(rules.Platforms) > 0 {
		for _, pl := range p.Platforms {
			if !contains(rules.Platforms, pl) {
				errs = append(errs, fmt.Sprintf("invalid platform: %s", pl))
			}
		}
	}
	if rules.MaxMediaItems > 0 && len(p.MediaURLs) > rules.MaxMediaItems {
		errs = append(errs, fmt.Sprintf("too many media items: %d > %d", len(p.MediaURLs), rules.MaxMediaItems))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
