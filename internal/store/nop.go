package store

import (
	"context"

	"github.com/amishk599/atsprobe/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It remembers nothing, so
// every fetched job is reported as created and no account is ever cached.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) ActiveJobs(ctx context.Context, companyDomain string, source model.Provider) ([]model.StoredJob, error) {
	return nil, nil
}

func (s *NopStore) UpsertJob(ctx context.Context, job model.CanonicalJob) (model.UpsertResult, error) {
	return model.UpsertResult{Created: true}, nil
}

func (s *NopStore) CloseJobs(ctx context.Context, companyDomain string, source model.Provider, externalIDs []string) (int, error) {
	return 0, nil
}

func (s *NopStore) ListJobs(ctx context.Context, companyDomain string) ([]model.StoredJob, error) {
	return nil, nil
}

func (s *NopStore) GetAccount(ctx context.Context, companyDomain string) (*model.ProviderAccount, error) {
	return nil, nil
}

func (s *NopStore) PutAccount(ctx context.Context, account model.ProviderAccount) error {
	return nil
}

func (s *NopStore) ListAccounts(ctx context.Context) ([]model.ProviderAccount, error) {
	return nil, nil
}
