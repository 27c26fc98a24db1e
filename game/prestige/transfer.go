package prestige

import (
	"github.com/kasuganosora/raidprofile/game/item"
	"github.com/kasuganosora/raidprofile/game/profile"
	"go.uber.org/zap"
)

// TransferRequest names one snapshot item to carry into the new profile.
type TransferRequest struct {
	ID string `json:"id"`
}

// transferItems copies each requested item tree from the snapshot into the
// stash of fresh. Missing items and containers are logged and skipped; their
// ids are returned.
func (e *Engine) transferItems(sessionID string, snap Snapshot, fresh *profile.Profile, reqs []TransferRequest) (*profile.Profile, []string) {
	pmc := fresh.PMC()
	var skipped []string
	for _, req := range reqs {
		if snap.isContainer(req.ID) {
			e.logger.Error("refusing to transfer an inventory container",
				zap.String("session_id", sessionID),
				zap.String("item_id", req.ID))
			skipped = append(skipped, req.ID)
			continue
		}
		tree := snap.ItemTree(req.ID)
		if tree == nil {
			e.logger.Error("unable to find item in inventory for transfer",
				zap.String("session_id", sessionID),
				zap.String("item_id", req.ID))
			skipped = append(skipped, req.ID)
			continue
		}
		_, err := e.inventory.AddItemsToStash(sessionID, pmc, item.AddItemsRequest{
			Items:           tree,
			FoundInRaid:     tree[0].FoundInRaid(),
			UseSortingTable: false,
		})
		if err != nil {
			e.logger.Error("unable to transfer item",
				zap.String("session_id", sessionID),
				zap.String("item_id", req.ID),
				zap.Error(err))
			skipped = append(skipped, req.ID)
		}
	}
	return fresh, skipped
}
