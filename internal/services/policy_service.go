package services

import (
	"github.com/casbin/casbin/v2"
	"github.com/rs/zerolog"

	"github.com/you/shopauthsvc/domain"
)

// enforcerAdapter narrows *casbin.Enforcer to domain.CasbinEnforcer
type enforcerAdapter struct {
	enforcer *casbin.Enforcer
}

func (a *enforcerAdapter) AddPolicy(params ...interface{}) (bool, error) {
	return a.enforcer.AddPolicy(params...)
}

func (a *enforcerAdapter) RemovePolicy(params ...interface{}) (bool, error) {
	return a.enforcer.RemovePolicy(params...)
}

func (a *enforcerAdapter) Enforce(rvals ...interface{}) (bool, error) {
	return a.enforcer.Enforce(rvals...)
}

func (a *enforcerAdapter) GetPolicy() ([][]string, error) {
	return a.enforcer.GetPolicy()
}

func (a *enforcerAdapter) SavePolicy() error {
	return a.enforcer.SavePolicy()
}

// PolicyServiceImpl manages the role policies guarding the admin and
// support routes. Mutations change who may touch orders and policies, so
// each one is audit-logged.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
	logger   zerolog.Logger
}

// NewPolicyService creates a policy service over the live Casbin enforcer
func NewPolicyService(enforcer *casbin.Enforcer, logger zerolog.Logger) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: &enforcerAdapter{enforcer: enforcer},
		logger:   logger,
	}
}

// NewPolicyServiceWithEnforcer creates a policy service over any
// domain.CasbinEnforcer (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer, logger zerolog.Logger) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: enforcer,
		logger:   logger,
	}
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	if _, err := p.enforcer.AddPolicy(role, resource, action); err != nil {
		return err
	}
	if err := p.enforcer.SavePolicy(); err != nil {
		return err
	}

	p.logger.Info().
		Str("event", "policy_added").
		Str("role", role).
		Str("resource", resource).
		Str("action", action).
		Msg("authorization policy added")
	return nil
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	if _, err := p.enforcer.RemovePolicy(role, resource, action); err != nil {
		return err
	}
	if err := p.enforcer.SavePolicy(); err != nil {
		return err
	}

	p.logger.Info().
		Str("event", "policy_removed").
		Str("role", role).
		Str("resource", resource).
		Str("action", action).
		Msg("authorization policy removed")
	return nil
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(role, resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to read policies")
		return nil
	}
	return policies
}
