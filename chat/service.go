package chat

import (
	"time"

	"github.com/Dzamal6/AMS-API/logging"
	"github.com/Dzamal6/AMS-API/provider"
	"github.com/Dzamal6/AMS-API/storage"
	"github.com/Dzamal6/AMS-API/store"
)

// DefaultTurnTimeout is the hard ceiling for one conversational turn.
// Exceeding it cancels that turn only; the conversation stays resumable.
const DefaultTurnTimeout = 55 * time.Second

// Options configures a Service.
type Options struct {
	// TurnTimeout bounds a single turn end to end.
	TurnTimeout time.Duration

	// InitialMode selects how the first turn after a hand-off treats the
	// user message. See IncludeInitial.
	InitialMode InitialMode

	Logger logging.TurnLogger
}

// Service orchestrates conversations: provisioning, turn execution,
// hand-offs, utility agents and teardown.
type Service struct {
	repo     store.Repository
	provider provider.Provider
	objects  storage.ObjectStore

	turnTimeout time.Duration
	initialMode InitialMode
	logger      logging.TurnLogger
}

// NewService wires the orchestration core to its collaborators.
func NewService(repo store.Repository, p provider.Provider, objects storage.ObjectStore, optFns ...func(o *Options)) *Service {
	opts := Options{
		TurnTimeout: DefaultTurnTimeout,
		InitialMode: InitialConcat,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		repo:        repo,
		provider:    p,
		objects:     objects,
		turnTimeout: opts.TurnTimeout,
		initialMode: opts.InitialMode,
		logger:      opts.Logger,
	}
}
