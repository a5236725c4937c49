// internal/lobby/owner.go
package lobby

import "github.com/durak-live/durak/internal/models"

// nextOwner picks the successor when a room's owner departs: the remaining
// member with the lowest seat. The departing player has already been removed
// from the membership table when this runs, so it can never be selected.
// Returns nil when the room emptied; the tidy pass removes it.
func nextOwner(rs *roomState) *models.Player {
	var pick *models.Player
	for _, p := range rs.members {
		if pick == nil || p.Seat < pick.Seat {
			pick = p
		}
	}
	return pick
}
