package feedprep

import "github.com/lmichelin/feedprep/constants"

// ModalFilter returns a copy of the feed restricted to routes of the given
// types. The copy is pruned so that no trip, visit or calendar entry of an
// excluded mode lingers. The receiver is left untouched.
func (f *Feed) ModalFilter(types ...RouteType) *Feed {
	wanted := map[RouteType]bool{}
	for _, t := range types {
		wanted[t] = true
	}
	c := f.Copy()
	c.Routes = keep(c.Routes, func(r Route) bool {
		if wanted[r.Type] {
			return true
		}
		c.Audit.add(constants.Route, r.Id, r.ShortName, "excluded mode")
		return false
	})
	c.Prune("modal filter")
	return c
}
