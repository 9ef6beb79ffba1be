// Package mocks provides gomock implementations of the ports interfaces.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockUserAPI(ctrl)
//	api.EXPECT().Me(gomock.Any()).Return(user, nil)
package mocks

// Generate mock for UserAPI interface from internal/ports package.
// This creates MockUserAPI with methods for all UserAPI interface methods:
// Signup, Login, GoogleLogin, ListUsers, Me, GetUser, UpdateMe, AnalyticsOverview, AnalyticsRecent
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_api_mock.go github.com/target/userdeck/internal/ports UserAPI

// Generate mocks for the auth ports.
// AuthProvider: Begin, Exchange. SessionStore: Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_ports_mock.go github.com/target/userdeck/internal/ports AuthProvider,SessionStore
