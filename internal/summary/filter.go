package summary

import (
	"context"

	"github.com/allisson/wallets/internal/config"
	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/events"
)

// FilterPriority orders the summary filter after the wallet creation
// listeners.
const FilterPriority = 30

// coreFrameworkTypes trigger a recompute even when not configured.
var coreFrameworkTypes = []string{
	credentialDomain.TypeBpnCredential,
	credentialDomain.TypeMembershipCredential,
	credentialDomain.TypeDismantlerCredential,
}

// Filter recomputes the summary of a wallet whose framework credentials
// changed.
type Filter struct {
	cfg        *config.Config
	recomputer Recomputer
}

// NewFilter creates a Filter.
func NewFilter(cfg *config.Config, recomputer Recomputer) *Filter {
	return &Filter{cfg: cfg, recomputer: recomputer}
}

// Listener subscribes the filter to stored and removed credentials.
func (f *Filter) Listener() events.Listener {
	return events.Listener{
		Name:     "summary-recompute",
		Kinds:    []events.Kind{events.CredentialStored, events.CredentialRemoved},
		Priority: FilterPriority,
		Handle:   f.handle,
	}
}

// Matches reports whether a change to a credential of these types affects
// the summary. Summary credentials never do.
func (f *Filter) Matches(types []string) bool {
	for _, t := range types {
		if t == credentialDomain.TypeSummaryCredential {
			return false
		}
	}
	for _, t := range types {
		if f.cfg.IsFrameworkType(t) {
			return true
		}
		for _, core := range coreFrameworkTypes {
			if t == core {
				return true
			}
		}
	}
	return false
}

func (f *Filter) handle(ctx context.Context, event events.Event) error {
	if !f.Matches(event.CredentialTypes) {
		return nil
	}
	_, err := f.recomputer.Recompute(ctx, event.WalletID)
	return err
}
