package item

import (
	"errors"

	"github.com/kasuganosora/raidprofile/game/profile"
	"go.uber.org/zap"
)

// Stash grid dimensions in cells. Every root item occupies one cell.
const (
	stashWidth  = 10
	stashHeight = 68
)

var (
	ErrNoItems        = errors.New("inventory: no items to add")
	ErrNoStash        = errors.New("inventory: character has no stash")
	ErrNoSortingTable = errors.New("inventory: character has no sorting table")
	ErrNoSpace        = errors.New("inventory: no free stash cell")
)

// AddItemsRequest adds one item tree: Items[0] is the root, the rest hang
// below it through ParentID.
type AddItemsRequest struct {
	Items           []profile.Item
	FoundInRaid     bool
	UseSortingTable bool
}

// Placement describes where an added tree ended up.
type Placement struct {
	RootID   string
	ParentID string
	Location profile.Location
	ItemIDs  []string
}

// InventoryService handles stash operations on in-memory characters.
type InventoryService struct {
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(logger *zap.Logger) *InventoryService {
	return &InventoryService{logger: logger}
}

// AddItemsToStash re-ids the tree, parents the root under the stash (or the
// sorting table when requested), stamps the found-in-raid flag on every item
// and places the root in the first free cell. The request items are not
// modified.
func (svc *InventoryService) AddItemsToStash(sessionID string, char *profile.Character, req AddItemsRequest) (*Placement, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	container := char.Inventory.Stash
	if req.UseSortingTable {
		container = char.Inventory.SortingTable
		if container == "" {
			return nil, ErrNoSortingTable
		}
	}
	if container == "" {
		return nil, ErrNoStash
	}

	loc, ok := firstFreeCell(char.Inventory.Items, container)
	if !ok {
		svc.logger.Warn("stash full",
			zap.String("session_id", sessionID),
			zap.String("tpl", req.Items[0].Tpl))
		return nil, ErrNoSpace
	}

	ids := make(map[string]string, len(req.Items))
	for _, it := range req.Items {
		ids[it.ID] = profile.NewID()
	}
	added := make([]profile.Item, 0, len(req.Items))
	for i, it := range req.Items {
		cp := it.Clone()
		cp.ID = ids[it.ID]
		if i == 0 {
			cp.ParentID = container
			cp.SlotID = profile.SlotHideout
			l := loc
			cp.Location = &l
		} else if newParent, ok := ids[it.ParentID]; ok {
			cp.ParentID = newParent
		}
		if cp.Upd == nil {
			cp.Upd = &profile.Upd{}
		}
		fir := req.FoundInRaid
		cp.Upd.SpawnedInSession = &fir
		added = append(added, cp)
	}
	char.Inventory.Items = append(char.Inventory.Items, added...)

	p := &Placement{RootID: added[0].ID, ParentID: container, Location: loc}
	for _, it := range added {
		p.ItemIDs = append(p.ItemIDs, it.ID)
	}
	svc.logger.Debug("items added to stash",
		zap.String("session_id", sessionID),
		zap.String("root_id", p.RootID),
		zap.String("container", container),
		zap.Int("x", loc.X), zap.Int("y", loc.Y))
	return p, nil
}

func firstFreeCell(items []profile.Item, container string) (profile.Location, bool) {
	used := make(map[[2]int]bool)
	for _, it := range items {
		if it.ParentID == container && it.Location != nil {
			used[[2]int{it.Location.X, it.Location.Y}] = true
		}
	}
	for y := 0; y < stashHeight; y++ {
		for x := 0; x < stashWidth; x++ {
			if !used[[2]int{x, y}] {
				return profile.Location{X: x, Y: y, R: "Horizontal"}, true
			}
		}
	}
	return profile.Location{}, false
}
