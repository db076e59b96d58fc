package domain

import "context"

type CredentialRepository interface {
	// Write path
	InsertCredential(ctx context.Context, c Credential) error

	// Read paths
	FindCredential(ctx context.Context, email string) (Credential, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type RestaurantRepository interface {
	UpsertRestaurant(ctx context.Context, r RestaurantRecord) error
	ListRestaurants(ctx context.Context) ([]RestaurantRecord, error)
}

type SessionStore interface {
	Put(ctx context.Context, s Session, ttlSec int) error
	Get(ctx context.Context, token string) (Session, error)
	Del(ctx context.Context, token string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type DirectionsClient interface {
	// DrivingRoute returns the best driving route between two positions,
	// or ErrNoRoute when the provider finds none.
	DrivingRoute(ctx context.Context, origin, dest Coords) (Route, error)
}
