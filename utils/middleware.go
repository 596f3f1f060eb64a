package utils

import (
	"content-catalog-server/services"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// CurrentActor builds the acting identity from verified token claims.
// Routes mounted without the verifier yield the anonymous zero Actor.
func CurrentActor(ctx iris.Context) services.Actor {
	if tok := jwt.Get(ctx); tok != nil {
		if claims, ok := tok.(*AccessToken); ok {
			return services.Actor{
				ID:            claims.ID,
				Role:          claims.Role,
				Superuser:     claims.Superuser,
				Authenticated: true,
			}
		}
	}
	return services.Actor{}
}

// RequireAuthorization gates a route on the central policy table. Ownership
// checks needing a loaded resource happen in the handler with the same
// services.Authorize call.
func RequireAuthorization(action services.Action, resource services.Resource) iris.Handler {
	return func(ctx iris.Context) {
		actor := CurrentActor(ctx)
		if !services.Authorize(actor, action, resource, 0) {
			if !actor.Authenticated {
				CreateUnauthenticated(ctx)
				return
			}
			CreateForbidden(ctx)
			return
		}
		ctx.Next()
	}
}
