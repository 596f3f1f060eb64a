package services

import "content-catalog-server/models"

// Action is a request-level operation on a resource collection or object.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Resource tags the kind of object an action targets.
type Resource string

const (
	ResourceCategory Resource = "category"
	ResourceGenre    Resource = "genre"
	ResourceTitle    Resource = "title"
	ResourceReview   Resource = "review"
	ResourceComment  Resource = "comment"
	ResourceUser     Resource = "user"
	ResourceSelf     Resource = "self"
)

// Actor is the acting identity, taken from verified token claims.
// The zero value is an unauthenticated caller.
type Actor struct {
	ID            uint
	Role          string
	Superuser     bool
	Authenticated bool
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated && (a.Role == models.AdminRoleName || a.Superuser)
}

func (a Actor) IsModerator() bool {
	return a.Authenticated && a.Role == models.ModeratorRoleName
}

type capability int

const (
	allowAnyone capability = iota
	allowAuthenticated
	allowAdmin
	allowAuthorOrStaff
	allowSelf
)

// capabilities is the whole access-control policy in one table.
// Anything not listed is denied.
var capabilities = map[Resource]map[Action]capability{
	ResourceCategory: {
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   allowAdmin,
		ActionUpdate:   allowAdmin,
		ActionDelete:   allowAdmin,
	},
	ResourceGenre: {
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   allowAdmin,
		ActionUpdate:   allowAdmin,
		ActionDelete:   allowAdmin,
	},
	ResourceTitle: {
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   allowAdmin,
		ActionUpdate:   allowAdmin,
		ActionDelete:   allowAdmin,
	},
	ResourceReview: {
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   allowAuthenticated,
		ActionUpdate:   allowAuthorOrStaff,
		ActionDelete:   allowAuthorOrStaff,
	},
	ResourceComment: {
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   allowAuthenticated,
		ActionUpdate:   allowAuthorOrStaff,
		ActionDelete:   allowAuthorOrStaff,
	},
	ResourceUser: {
		ActionList:     allowAdmin,
		ActionRetrieve: allowAdmin,
		ActionCreate:   allowAdmin,
		ActionUpdate:   allowAdmin,
		ActionDelete:   allowAdmin,
	},
	ResourceSelf: {
		ActionRetrieve: allowSelf,
		ActionUpdate:   allowSelf,
	},
}

// Authorize is the single access-control decision point. It is a pure
// predicate: evaluated fresh on every request, never cached. ownerID is the
// resource's author (or, for ResourceSelf, the profile's owner); it is
// ignored by rules that do not involve ownership.
func Authorize(actor Actor, action Action, resource Resource, ownerID uint) bool {
	actions, ok := capabilities[resource]
	if !ok {
		return false
	}
	allowed, ok := actions[action]
	if !ok {
		return false
	}

	switch allowed {
	case allowAnyone:
		return true
	case allowAuthenticated:
		return actor.Authenticated
	case allowAdmin:
		return actor.IsAdmin()
	case allowAuthorOrStaff:
		return actor.Authenticated &&
			(actor.ID == ownerID || actor.IsModerator() || actor.IsAdmin())
	case allowSelf:
		return actor.Authenticated && actor.ID == ownerID
	}
	return false
}
