package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func studentClaims() Claims {
	return Claims{UserID: 10, Email: "student@test.com", Role: "student", IsActive: true}
}

func teacherClaims() Claims {
	return Claims{UserID: 20, Email: "teacher@test.com", Role: "teacher", IsActive: true}
}

func adminClaims() Claims {
	return Claims{UserID: 1, Email: "admin@test.com", Role: "teacher", IsAdmin: true, IsActive: true}
}

func demoClaims(trialEnd string) Claims {
	return Claims{UserID: 30, Email: "demo@test.com", Role: "demo", IsActive: true, TrialEndDate: trialEnd}
}

func TestAuthorizeIdentity(t *testing.T) {
	d := Authorize(Claims{}, ActionRead, &Resource{Kind: KindCourse})
	assert.False(t, d.Allow)
	assert.Equal(t, "Usuario no autorizado", d.Reason)

	inactive := studentClaims()
	inactive.IsActive = false
	d = Authorize(inactive, ActionRead, &Resource{Kind: KindCourse})
	assert.False(t, d.Allow)
	assert.Equal(t, "Cuenta inactiva", d.Reason)
}

func TestAuthorizeTrialWindow(t *testing.T) {
	expired := demoClaims(time.Now().Add(-time.Hour).Format(time.RFC3339))
	d := Authorize(expired, ActionRead, &Resource{Kind: KindCourse})
	assert.False(t, d.Allow)
	assert.Equal(t, "Periodo de prueba expirado", d.Reason)

	active := demoClaims(time.Now().Add(48 * time.Hour).Format(time.RFC3339))
	d = Authorize(active, ActionRead, &Resource{Kind: KindCourse})
	assert.True(t, d.Allow)
	assert.True(t, d.Restricted)
	assert.False(t, d.TrialUnknown)
}

func TestAuthorizeTrialUnparseable(t *testing.T) {
	// A broken date is flagged but never blocks access.
	garbled := demoClaims("not-a-date")
	d := Authorize(garbled, ActionRead, &Resource{Kind: KindCourse})
	assert.True(t, d.Allow)
	assert.True(t, d.TrialUnknown)

	missing := demoClaims("")
	d = Authorize(missing, ActionRead, &Resource{Kind: KindCourse})
	assert.True(t, d.Allow)
	assert.True(t, d.TrialUnknown)
}

func TestAuthorizeAdminSuperset(t *testing.T) {
	admin := adminClaims()

	for _, res := range []*Resource{
		{Kind: KindCourse, OwnerID: 999},
		{Kind: KindUser, TargetUserID: 999},
		{Kind: KindPurchase},
		{Kind: KindProgress, TargetUserID: 999},
	} {
		for _, action := range []Action{ActionRead, ActionReadList, ActionCreate, ActionUpdate, ActionDelete} {
			d := Authorize(admin, action, res)
			assert.True(t, d.Allow, "admin denied %s on %s", action, res.Kind)
			assert.False(t, d.Restricted)
		}
	}
}

func TestAuthorizeCatalogOwnership(t *testing.T) {
	teacher := teacherClaims()

	d := Authorize(teacher, ActionUpdate, &Resource{Kind: KindCourse, OwnerID: teacher.UserID})
	assert.True(t, d.Allow)

	d = Authorize(teacher, ActionUpdate, &Resource{Kind: KindCourse, OwnerID: 999})
	assert.False(t, d.Allow)
	assert.Equal(t, "No puedes actualizar cursos de otros profesores", d.Reason)

	d = Authorize(teacher, ActionCreate, &Resource{Kind: KindModule, OwnerID: 999})
	assert.False(t, d.Allow)
	assert.Equal(t, "No puedes crear módulos en cursos de otros profesores", d.Reason)

	d = Authorize(teacher, ActionDelete, &Resource{Kind: KindLesson, OwnerID: 999})
	assert.False(t, d.Allow)
	assert.Equal(t, "No puedes eliminar lecciones de otros profesores", d.Reason)
}

func TestAuthorizeCatalogByRole(t *testing.T) {
	student := studentClaims()

	d := Authorize(student, ActionCreate, &Resource{Kind: KindCourse})
	assert.False(t, d.Allow)

	d = Authorize(student, ActionRead, &Resource{Kind: KindCourse, OwnerID: 999})
	assert.True(t, d.Allow)
	assert.False(t, d.Restricted)

	demo := demoClaims(time.Now().Add(time.Hour).Format(time.RFC3339))
	d = Authorize(demo, ActionRead, &Resource{Kind: KindLesson})
	assert.True(t, d.Allow)
	assert.True(t, d.Restricted)
}

func TestAuthorizeUserSelf(t *testing.T) {
	student := studentClaims()

	d := Authorize(student, ActionReadOwn, &Resource{Kind: KindUser, TargetUserID: student.UserID})
	assert.True(t, d.Allow)
	assert.True(t, d.Restricted)

	d = Authorize(student, ActionReadOwn, &Resource{Kind: KindUser, TargetUserID: 999})
	assert.False(t, d.Allow)

	d = Authorize(student, ActionReadList, &Resource{Kind: KindUser})
	assert.False(t, d.Allow)

	d = Authorize(student, ActionDelete, &Resource{Kind: KindUser, TargetUserID: student.UserID})
	assert.False(t, d.Allow)
}

func TestAuthorizePurchases(t *testing.T) {
	student := studentClaims()
	teacher := teacherClaims()

	d := Authorize(student, ActionCreate, &Resource{Kind: KindPurchase, TargetUserID: student.UserID})
	assert.True(t, d.Allow)

	d = Authorize(student, ActionCreate, &Resource{Kind: KindPurchase, TargetUserID: 999})
	assert.False(t, d.Allow)
	assert.Equal(t, "No puedes crear compras para otros usuarios", d.Reason)

	// Buyer sees their own purchase, the owning teacher sees it too.
	d = Authorize(student, ActionRead, &Resource{Kind: KindPurchase, TargetUserID: student.UserID, OwnerID: teacher.UserID})
	assert.True(t, d.Allow)

	d = Authorize(teacher, ActionRead, &Resource{Kind: KindPurchase, TargetUserID: student.UserID, OwnerID: teacher.UserID})
	assert.True(t, d.Allow)

	d = Authorize(teacher, ActionRead, &Resource{Kind: KindPurchase, TargetUserID: student.UserID, OwnerID: 999})
	assert.False(t, d.Allow)

	d = Authorize(student, ActionReadList, &Resource{Kind: KindPurchase})
	assert.False(t, d.Allow)
	assert.Equal(t, "No autorizado para ver compras, no es admin", d.Reason)
}

func TestAuthorizeProgress(t *testing.T) {
	student := studentClaims()
	teacher := teacherClaims()

	d := Authorize(student, ActionCreate, &Resource{Kind: KindProgress, TargetUserID: student.UserID})
	assert.True(t, d.Allow)

	d = Authorize(student, ActionCreate, &Resource{Kind: KindProgress, TargetUserID: 999})
	assert.False(t, d.Allow)

	d = Authorize(teacher, ActionCreate, &Resource{Kind: KindProgress, TargetUserID: 999})
	assert.True(t, d.Allow)

	d = Authorize(student, ActionReadList, &Resource{Kind: KindProgress})
	assert.True(t, d.Allow)
	assert.True(t, d.Restricted)

	d = Authorize(teacher, ActionReadList, &Resource{Kind: KindProgress})
	assert.True(t, d.Allow)
	assert.False(t, d.Restricted)

	d = Authorize(student, ActionDelete, &Resource{Kind: KindProgress})
	assert.False(t, d.Allow)
}

func TestAuthorizeAchievements(t *testing.T) {
	student := studentClaims()
	teacher := teacherClaims()

	d := Authorize(student, ActionRead, &Resource{Kind: KindAchievement})
	assert.True(t, d.Allow)

	d = Authorize(student, ActionCreate, &Resource{Kind: KindAchievement})
	assert.False(t, d.Allow)
	assert.Equal(t, "No eres Admin ni Teacher, no puedes asignar logros", d.Reason)

	d = Authorize(teacher, ActionCreate, &Resource{Kind: KindAchievement})
	assert.True(t, d.Allow)
}

func TestAuthorizeDefaultDeny(t *testing.T) {
	d := Authorize(studentClaims(), ActionUpdate, &Resource{Kind: "unknown"})
	assert.False(t, d.Allow)
	assert.Equal(t, "Rol no autorizado", d.Reason)

	d = Authorize(studentClaims(), ActionUpdate, nil)
	assert.False(t, d.Allow)
}
