package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracelight/casegate/internal/server/db"
)

type caseRefUpdate struct {
	CaseNumber string     `json:"caseNumber" binding:"required"`
	CreatedAt  *time.Time `json:"createdAt"`
}

// profileUpdate is a partial profile: nil fields keep their stored value.
type profileUpdate struct {
	Email     *string          `json:"email"`
	FirstName *string          `json:"firstName"`
	LastName  *string          `json:"lastName"`
	Permitted *bool            `json:"permitted"`
	Cases     *[]caseRefUpdate `json:"cases"`
}

// HandleGetProfile handles GET /v1/profiles/:uid.
func HandleGetProfile(store *db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.Param("uid")
		p, err := store.GetProfile(uid)
		if err != nil {
			log.Printf("GetProfile(%q) error: %v", uid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve profile"})
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusOK, profileView(p))
	}
}

// HandlePutProfile handles PUT /v1/profiles/:uid.
//
// The first put for a uid creates the record with defaults (permitted=false,
// no cases) and returns 201; later puts merge the supplied non-null fields
// over the stored record and return 200. Concurrent puts on one uid are
// last-writer-wins at record granularity; there is no version token.
func HandlePutProfile(store *db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.Param("uid")

		var req profileUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		existing, err := store.GetProfile(uid)
		if err != nil {
			log.Printf("GetProfile(%q) error: %v", uid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve profile"})
			return
		}

		now := time.Now().UTC()
		created := existing == nil

		var p db.Profile
		if created {
			p = db.Profile{UID: uid, CreatedAt: now}
		} else {
			p = *existing
		}
		p.UpdatedAt = now

		if req.Email != nil {
			p.Email = *req.Email
		}
		if req.FirstName != nil {
			p.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			p.LastName = *req.LastName
		}
		if req.Permitted != nil {
			p.Permitted = *req.Permitted
		}
		if req.Cases != nil {
			cases := make([]db.CaseRef, 0, len(*req.Cases))
			for _, cr := range *req.Cases {
				ref := db.CaseRef{CaseNumber: cr.CaseNumber, CreatedAt: now}
				if cr.CreatedAt != nil {
					ref.CreatedAt = *cr.CreatedAt
				}
				cases = append(cases, ref)
			}
			p.Cases = cases
		}

		if err := store.PutProfile(&p); err != nil {
			log.Printf("PutProfile(%q) error: %v", uid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store profile"})
			return
		}

		// Re-read so cases come back in display order.
		stored, err := store.GetProfile(uid)
		if err != nil || stored == nil {
			log.Printf("GetProfile(%q) after put error: %v", uid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve profile"})
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, profileView(stored))
	}
}

// HandleDeleteProfile handles DELETE /v1/profiles/:uid. Deleting an absent
// uid still succeeds.
func HandleDeleteProfile(store *db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.Param("uid")
		existed, err := store.DeleteProfile(uid)
		if err != nil {
			log.Printf("DeleteProfile(%q) error: %v", uid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "uid": uid, "existed": existed})
	}
}

// profileView guarantees cases serialize as [] rather than null.
func profileView(p *db.Profile) *db.Profile {
	if p.Cases == nil {
		p.Cases = []db.CaseRef{}
	}
	return p
}
