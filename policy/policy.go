// Package policy is the entitlement engine. Every authenticated request goes
// through Authorize, a pure function over the token claims snapshot taken at
// login. Nothing here touches the database: a trial that is extended
// server-side only takes effect when the holder logs in again.
package policy

import (
	"log"
	"time"
)

// Action is the operation being attempted on a resource.
type Action string

const (
	ActionRead      Action = "read"
	ActionReadOwn   Action = "read-own"
	ActionReadList  Action = "read-list"
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUpdateOwn Action = "update-own"
	ActionDelete    Action = "delete"
)

// Resource kinds known to the engine.
const (
	KindCourse      = "course"
	KindModule      = "module"
	KindLesson      = "lesson"
	KindResource    = "resource"
	KindUser        = "user"
	KindPurchase    = "purchase"
	KindProgress    = "progress"
	KindAchievement = "achievement"
)

// Claims is the identity snapshot carried in the JWT.
type Claims struct {
	UserID       uint
	Email        string
	Role         string
	IsAdmin      bool
	IsActive     bool
	TrialEndDate string // RFC3339, only meaningful for demo accounts
}

// Resource carries the loaded record fields the engine needs. OwnerID is the
// creating teacher for the catalog subtree (course.created_by, transitively
// for modules, lessons and resources, and for purchases via the course).
// TargetUserID is the user a row belongs to (user record, purchase buyer,
// progress owner).
type Resource struct {
	Kind         string
	OwnerID      uint
	TargetUserID uint
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allow        bool
	Reason       string
	Restricted   bool // non-admin view: hide privileged fields / trial-gate rows
	TrialUnknown bool // demo trial date was unparseable; informational only
}

func allow() Decision { return Decision{Allow: true} }

func allowRestricted() Decision { return Decision{Allow: true, Restricted: true} }

func deny(reason string) Decision { return Decision{Allow: false, Reason: reason} }

// mutations are the actions that change state.
func isMutation(a Action) bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionUpdateOwn || a == ActionDelete
}

// ownershipDenials maps a catalog kind to the message returned when a teacher
// touches another teacher's subtree.
var ownershipDenials = map[string]map[Action]string{
	KindCourse: {
		ActionUpdate: "No puedes actualizar cursos de otros profesores",
		ActionDelete: "No puedes eliminar cursos de otros profesores",
	},
	KindModule: {
		ActionCreate: "No puedes crear módulos en cursos de otros profesores",
		ActionUpdate: "No puedes actualizar módulos de otros profesores",
		ActionDelete: "No puedes eliminar módulos de otros profesores",
	},
	KindLesson: {
		ActionCreate: "No puedes crear lecciones en cursos de otros profesores",
		ActionUpdate: "No puedes actualizar lecciones de otros profesores",
		ActionDelete: "No puedes eliminar lecciones de otros profesores",
	},
	KindResource: {
		ActionCreate: "No puedes crear recursos en cursos de otros profesores",
		ActionUpdate: "No puedes actualizar recursos de otros profesores",
		ActionDelete: "No puedes eliminar recursos de otros profesores",
	},
}

// Authorize decides whether the identity behind claims may perform action on
// res. It is a pure function; the caller executes the operation on ALLOW.
// res may be nil for actions that need no ownership context.
func Authorize(claims Claims, action Action, res *Resource) Decision {
	// 1. Missing or inactive identity.
	if claims.UserID == 0 {
		return deny("Usuario no autorizado")
	}
	if !claims.IsActive {
		return deny("Cuenta inactiva")
	}

	// 2. Demo trial window, re-evaluated per request from the login snapshot.
	trialUnknown := false
	if claims.Role == "demo" {
		if claims.TrialEndDate == "" {
			trialUnknown = true
			log.Printf("[POLICY] demo user %d has no trial_end_date in token", claims.UserID)
		} else if end, err := time.Parse(time.RFC3339, claims.TrialEndDate); err != nil {
			// Unparseable dates do not block access, only clearly expired
			// ones do. Surfaced to the caller as informational.
			trialUnknown = true
			log.Printf("[POLICY] demo user %d has unparseable trial_end_date %q: %v", claims.UserID, claims.TrialEndDate, err)
		} else if end.Before(time.Now()) {
			return deny("Periodo de prueba expirado")
		}
	}

	// 3. Admin is the superset role.
	if claims.IsAdmin {
		d := allow()
		d.TrialUnknown = trialUnknown
		return d
	}

	d := decide(claims, action, res)
	d.TrialUnknown = trialUnknown
	return d
}

// decide applies the non-admin role/ownership matrix.
func decide(claims Claims, action Action, res *Resource) Decision {
	kind := ""
	if res != nil {
		kind = res.Kind
	}

	switch kind {
	case KindCourse, KindModule, KindLesson, KindResource:
		if isMutation(action) {
			if claims.Role != "teacher" {
				return deny("No eres un Admin ni Teacher, no puedes modificar el catálogo")
			}
			// For create the new row's owner is implicitly the caller, but a
			// nested create still needs the parent course to be theirs.
			if res.OwnerID != 0 && res.OwnerID != claims.UserID {
				if msg, ok := ownershipDenials[kind][action]; ok {
					return deny(msg)
				}
				return deny("Rol no autorizado")
			}
			return allow()
		}
		// Reads of loaded catalog rows are open to any active account. Demo
		// accounts get the trial-gated projection.
		if claims.Role == "demo" {
			return allowRestricted()
		}
		return allow()

	case KindUser:
		switch action {
		case ActionReadOwn, ActionUpdateOwn:
			if res.TargetUserID == claims.UserID {
				return allowRestricted()
			}
			return deny("Rol no autorizado")
		case ActionRead, ActionUpdate, ActionDelete, ActionReadList:
			return deny("Rol no autorizado")
		}

	case KindPurchase:
		switch action {
		case ActionCreate:
			// No buying on behalf of others.
			if res.TargetUserID == claims.UserID {
				return allow()
			}
			return deny("No puedes crear compras para otros usuarios")
		case ActionRead:
			if res.TargetUserID == claims.UserID {
				return allowRestricted()
			}
			if claims.Role == "teacher" && res.OwnerID == claims.UserID {
				return allow()
			}
			return deny("Rol no autorizado")
		case ActionReadList:
			return deny("No autorizado para ver compras, no es admin")
		case ActionUpdate, ActionDelete:
			return deny("Rol no autorizado")
		}

	case KindProgress:
		switch action {
		case ActionCreate:
			if claims.Role == "teacher" || res.TargetUserID == claims.UserID {
				return allow()
			}
			return deny("No autorizado para crear progreso de otro usuario")
		case ActionRead, ActionReadList:
			if claims.Role == "teacher" {
				return allow()
			}
			return allowRestricted() // own rows only
		case ActionUpdate, ActionDelete:
			if claims.Role == "teacher" {
				return allow()
			}
			return deny("No autorizado para eliminar progreso")
		}

	case KindAchievement:
		switch action {
		case ActionRead, ActionReadList:
			return allow()
		case ActionCreate, ActionUpdate, ActionDelete:
			if claims.Role == "teacher" {
				return allow()
			}
			return deny("No eres Admin ni Teacher, no puedes asignar logros")
		}
	}

	return deny("Rol no autorizado")
}
