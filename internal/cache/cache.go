package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Keys shared by the services that fill and invalidate them.
const KeyJobLocations = "jobs:locations"

func KeyEmployerDashboard(userID string) string { return "dashboard:employer:" + userID }
func KeySeekerDashboard(userID string) string   { return "dashboard:seeker:" + userID }

// KeyUserRole holds a profile role. Roles never change, so it is never
// invalidated.
func KeyUserRole(userID string) string { return "profile:role:" + userID }
