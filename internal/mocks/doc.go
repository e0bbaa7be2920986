// Package mocks provides centralized mock implementations for testing.
//
// Stores are in-memory implementations that evaluate query conditions the
// way the database backends do, so handler and service tests exercise real
// filtering, sorting and pagination. Services with external effects are
// mocked with function fields (MockJWTService) or testify/mock (Mailer).
//
// Usage:
//
//	backend := mocks.NewBackend()
//	require.NoError(t, backend.Import(ctx, store.Dataset{Tours: tours}))
//
//	jwtService := &mocks.MockJWTService{
//	    ValidateErr: auth.ErrExpiredToken,
//	}
package mocks
