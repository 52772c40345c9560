package users

import (
	"time"

	"arcana-app/internal/domain/access"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
)

type MeResponse struct {
	User         UserDTO          `json:"user"`
	Profile      *ProfileDTO      `json:"profile"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Access       access.Policy    `json:"access"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Role  string `json:"role"`
}

/* ---------- PROFILE ---------- */

type ProfileDTO struct {
	DateOfBirth *string `json:"dateOfBirth"`
	BirthTime   *string `json:"birthTime"`
	ZodiacSign  *string `json:"zodiacSign"`
	MoonSign    *string `json:"moonSign"`
	Ascendant   *string `json:"ascendant"`
	Region      *string `json:"region"`
}

// ProfileView merges the user row with its profile.
type ProfileView struct {
	User    UserDTO     `json:"user"`
	Profile *ProfileDTO `json:"profile"`
}

type AstrologyView struct {
	DateOfBirth *string `json:"dateOfBirth"`
	BirthTime   *string `json:"birthTime"`
	ZodiacSign  *string `json:"zodiacSign"`
	MoonSign    *string `json:"moonSign"`
	Ascendant   *string `json:"ascendant"`
}

/* ---------- BILLING ---------- */

type SubscriptionDTO struct {
	ID                 string    `json:"id"`
	PlanID             string    `json:"planId"`
	Status             string    `json:"status"`
	Entitled           bool      `json:"entitled"`
	CancelAtPeriodEnd  bool      `json:"cancelAtPeriodEnd"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(users.DateLayout)
	return &s
}

func buildProfileView(u *users.User) *ProfileView {
	view := &ProfileView{
		User: UserDTO{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.Name,
			Image: u.Image,
			Role:  u.Role,
		},
	}
	if p := u.Profile; p != nil {
		view.Profile = &ProfileDTO{
			DateOfBirth: formatDate(p.DateOfBirth),
			BirthTime:   p.BirthTime,
			ZodiacSign:  p.ZodiacSign,
			MoonSign:    p.MoonSign,
			Ascendant:   p.Ascendant,
			Region:      p.Region,
		}
	}
	return view
}

func buildAstrologyView(p *users.Profile) *AstrologyView {
	return &AstrologyView{
		DateOfBirth: formatDate(p.DateOfBirth),
		BirthTime:   p.BirthTime,
		ZodiacSign:  p.ZodiacSign,
		MoonSign:    p.MoonSign,
		Ascendant:   p.Ascendant,
	}
}

func buildSubscriptionView(s *subscriptions.Subscription) *SubscriptionDTO {
	if s == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:                 s.ID,
		PlanID:             s.PlanID,
		Status:             string(s.Status),
		Entitled:           s.Entitled(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
	}
}
