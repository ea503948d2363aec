package reconciler

import (
	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/internal/app/service/notifier"
	"github.com/fatflowers/payrecon/internal/app/service/subscription"
)

var Module = fx.Options(
	fx.Provide(
		func(s *subscription.Service) Ledger { return s },
		func(n *notifier.Notifier) ConfirmationNotifier { return n },
		New,
	),
)
