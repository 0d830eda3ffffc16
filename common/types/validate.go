package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Validate checks the struct tags of the configuration and that the chain
// label belongs to the configured platform.
func (c *ChainConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrapf(err, "chain config %q", c.Name)
	}
	if !c.Chain.IsValid() {
		return errors.Wrapf(ErrUnknownChain, "chain config %q: %q", c.Name, c.Chain)
	}
	if c.Chain.Platform() != c.ChainType {
		return errors.Errorf("chain config %q: %s is a %s chain, not %s", c.Name, c.Chain, c.Chain.Platform(), c.ChainType)
	}
	return nil
}
