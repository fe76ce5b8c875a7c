// Package mocks provides mock implementations of the account use case and its repository.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
)

// MockUseCase is a mock implementation of usecase.UseCase.
type MockUseCase struct {
	mock.Mock
}

// PublicKey mocks the PublicKey method.
func (m *MockUseCase) PublicKey(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

// CreateUser mocks the CreateUser method.
func (m *MockUseCase) CreateUser(ctx context.Context, input *accountDomain.RegisterInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// Login mocks the Login method.
func (m *MockUseCase) Login(
	ctx context.Context,
	input *accountDomain.LoginInput,
) (*accountDomain.Profile, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.Profile), args.Error(1)
}

// Ping mocks the Ping method.
func (m *MockUseCase) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCredentialRepository is a mock implementation of usecase.CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

// List mocks the List method.
func (m *MockCredentialRepository) List(ctx context.Context) ([]*accountDomain.CredentialRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accountDomain.CredentialRecord), args.Error(1)
}

// GetByEmail mocks the GetByEmail method.
func (m *MockCredentialRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*accountDomain.CredentialRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.CredentialRecord), args.Error(1)
}

// Create mocks the Create method.
func (m *MockCredentialRepository) Create(ctx context.Context, record *accountDomain.CredentialRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Ping mocks the Ping method.
func (m *MockCredentialRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
