package access

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// FromContext rebuilds the request actor from what the auth middleware
// stored. A request that never passed authentication yields the
// anonymous actor.
func FromContext(c *gin.Context) (Actor, bool) {
	idVal, exists := c.Get("userId")
	if !exists {
		return Anonymous(), false
	}

	id, ok := idVal.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return Anonymous(), false
	}

	roleVal, exists := c.Get("userRole")
	if !exists {
		return Anonymous(), false
	}

	role, ok := roleVal.(types.UserRole)
	if !ok || !role.Valid() {
		return Anonymous(), false
	}

	return ActorFor(id, role), true
}
