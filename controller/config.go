package controller

import (
	"errors"
	"fmt"

	"github.com/digitalshow/ola/logger"
	"github.com/digitalshow/ola/uid"
)

// DefaultQueuePrealloc is the initial capacity of the pending-transaction
// queue.
const DefaultQueuePrealloc = 8

// MaxPortID is the highest valid RDM port ID carried in request frames.
const MaxPortID uint8 = 0xFF

// Config holds the configuration of a Controller.
type Config struct {
	// srcUID is the controller's own UID, used as the source address of
	// every outgoing request.
	srcUID uid.UID

	// portID identifies the physical port of the controller, embedded in
	// request frames.
	portID uint8

	queuePrealloc int

	logger logger.Logger
}

// NewConfig creates a controller configuration for the given controller
// UID. opts are functional options applied in order; see the With*
// functions.
func NewConfig(srcUID uid.UID, opts ...Option) (*Config, error) {
	if srcUID.IsBroadcast() {
		return nil, fmt.Errorf("controller: source UID %s must not be a broadcast pattern", srcUID)
	}

	cfg := &Config{
		srcUID:        srcUID,
		portID:        1,
		queuePrealloc: DefaultQueuePrealloc,
		logger:        logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SrcUID returns the controller's own UID.
func (cfg *Config) SrcUID() uid.UID { return cfg.srcUID }

// PortID returns the configured port ID.
func (cfg *Config) PortID() uint8 { return cfg.portID }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithPortID sets the port ID embedded in outgoing request frames.
// Port IDs start at 1; 0 is reserved.
func WithPortID(id uint8) Option {
	return optFunc(func(cfg *Config) error {
		if id == 0 {
			return errors.New("controller: port ID must be >= 1")
		}
		cfg.portID = id

		return nil
	})
}

// WithQueuePrealloc sets the initial capacity of the pending-transaction
// queue.
func WithQueuePrealloc(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 0 {
			return errors.New("controller: queue prealloc must be >= 0")
		}
		cfg.queuePrealloc = n

		return nil
	})
}

// WithLogger sets the logger for the controller.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("controller: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
