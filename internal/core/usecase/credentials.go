package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/verdantlab/leafscan/internal/core/domain"
	"github.com/verdantlab/leafscan/internal/core/ports"
)

// CredentialService manages the stored secondary-provider secret. It lives in
// the settings namespace and its lifecycle is independent of any session.
type CredentialService struct {
	store ports.KeyValueStore
}

func NewCredentialService(store ports.KeyValueStore) *CredentialService {
	return &CredentialService{store: store}
}

func (s *CredentialService) Credential(ctx context.Context) (string, bool, error) {
	value, found, err := s.store.Get(ctx, ports.NamespaceSettings, ports.KeyCredential)
	if err != nil {
		return "", false, domain.WrapError(domain.ErrTemporary, "read credential", err)
	}
	if !found {
		return "", false, nil
	}
	return string(value), true, nil
}

func (s *CredentialService) SetCredential(ctx context.Context, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return domain.WrapError(domain.ErrInvalidInput, "store credential", errors.New("empty secret"))
	}
	if err := s.store.Put(ctx, ports.NamespaceSettings, ports.KeyCredential, []byte(secret)); err != nil {
		return domain.WrapError(domain.ErrTemporary, "store credential", err)
	}
	return nil
}

func (s *CredentialService) DeleteCredential(ctx context.Context) error {
	if err := s.store.Delete(ctx, ports.NamespaceSettings, ports.KeyCredential); err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete credential", err)
	}
	return nil
}
