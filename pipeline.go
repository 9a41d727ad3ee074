package auth

import "context"

// Pipeline evaluates a fixed sequence of directives guarding one operation.
// Directives run in the order they were declared, the first denial stops the
// chain, and the identity resolved along the way lands in the returned
// context so downstream handlers can pick it up.
type Pipeline struct {
	directives []AuthDirective
	logger     Logger
}

func NewPipeline(directives ...AuthDirective) *Pipeline {
	return &Pipeline{
		directives: directives,
		logger:     defLogger{},
	}
}

func (p *Pipeline) WithLogger(l Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Use appends directives to the chain.
func (p *Pipeline) Use(directives ...AuthDirective) *Pipeline {
	p.directives = append(p.directives, directives...)
	return p
}

// Evaluate runs the chain. On success the returned context carries the
// resolved identity and claims; on denial the input context comes back
// untouched together with the denial.
func (p *Pipeline) Evaluate(ctx context.Context, op Operation) (context.Context, *Denial) {
	res := &Resolution{}

	if identity, ok := IdentityFromContext(ctx); ok {
		res.Identity = identity
	}
	if claims, ok := GetClaims(ctx); ok {
		res.Claims = claims
	}

	for _, directive := range p.directives {
		if denial := directive.ResolvePermission(ctx, res, op); denial != nil {
			p.logger.Debug("operation %s denied: %s", op.Path, denial.Error())
			return ctx, denial
		}
	}

	if res.Identity != nil {
		ctx = WithIdentity(ctx, res.Identity)
	}
	if res.Claims != nil {
		ctx = WithClaimsContext(ctx, res.Claims)
	}

	return ctx, nil
}

// Guard wraps a handler so it only runs when every directive passes.
func (p *Pipeline) Guard(op Operation, next func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, denial := p.Evaluate(ctx, op)
		if denial != nil {
			return denialError(denial)
		}
		return next(ctx)
	}
}
