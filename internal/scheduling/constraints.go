package scheduling

// occupancy tracks, incrementally, every resource a partial assignment has
// claimed so a candidate placement can be accepted or rejected in constant
// time per slot instead of re-scanning every prior placement (spec.md §4.5,
// SPEC_FULL §7 "incremental occupancy maps").
type occupancy struct {
	grid TimeGrid
	anc  *Ancestry

	room map[roomSlotKey]string // (room, week, slot) -> activity id
	prof map[profSlotKey]string // (professor, week, slot) -> activity id
	grp  map[groupSlotKey]string // (group, week, slot) -> activity id, marked for every conflicting group

	dayLoad map[groupDayKey]int // (group, week, day) -> covered-slot count
}

type roomSlotKey struct {
	room string
	week int
	slot int
}

type profSlotKey struct {
	prof string
	week int
	slot int
}

type groupSlotKey struct {
	group string
	week  int
	slot  int
}

type groupDayKey struct {
	group string
	week  int
	day   int
}

func newOccupancy(grid TimeGrid, anc *Ancestry) *occupancy {
	return &occupancy{
		grid:    grid,
		anc:     anc,
		room:    make(map[roomSlotKey]string),
		prof:    make(map[profSlotKey]string),
		grp:     make(map[groupSlotKey]string),
		dayLoad: make(map[groupDayKey]int),
	}
}

// fits reports whether placing activity a (room, start, weeks) would violate
// room exclusivity, professor exclusivity, group exclusivity, or the daily
// load cap for any conflicting group.
func (o *occupancy) fits(a Activity, room string, start int, weeks []int) bool {
	slots := Covered(start, a.DurationSlots)
	conflicts := o.anc.Conflicts(a.GroupID)

	for _, week := range weeks {
		for _, slot := range slots {
			if occ, ok := o.room[roomSlotKey{room, week, slot}]; ok && occ != a.ID {
				return false
			}
			if a.ProfessorID != "" {
				if occ, ok := o.prof[profSlotKey{a.ProfessorID, week, slot}]; ok && occ != a.ID {
					return false
				}
			}
			for _, g := range conflicts {
				if occ, ok := o.grp[groupSlotKey{g, week, slot}]; ok && occ != a.ID {
					return false
				}
			}
		}
		for _, g := range conflicts {
			day := o.grid.DayOf(start)
			projected := o.dayLoad[groupDayKey{g, week, day}] + len(slots)
			if projected > o.grid.MaxTimeslotsPerDayPerGroup {
				return false
			}
		}
	}
	return true
}

// place commits a's placement into the occupancy maps.
func (o *occupancy) place(a Activity, room string, start int, weeks []int) {
	slots := Covered(start, a.DurationSlots)
	conflicts := o.anc.Conflicts(a.GroupID)
	day := o.grid.DayOf(start)

	for _, week := range weeks {
		for _, slot := range slots {
			o.room[roomSlotKey{room, week, slot}] = a.ID
			if a.ProfessorID != "" {
				o.prof[profSlotKey{a.ProfessorID, week, slot}] = a.ID
			}
			for _, g := range conflicts {
				o.grp[groupSlotKey{g, week, slot}] = a.ID
			}
		}
		for _, g := range conflicts {
			o.dayLoad[groupDayKey{g, week, day}] += len(slots)
		}
	}
}

// unplace reverses place, restoring the occupancy maps to their prior state.
func (o *occupancy) unplace(a Activity, room string, start int, weeks []int) {
	slots := Covered(start, a.DurationSlots)
	conflicts := o.anc.Conflicts(a.GroupID)
	day := o.grid.DayOf(start)

	for _, week := range weeks {
		for _, slot := range slots {
			delete(o.room, roomSlotKey{room, week, slot})
			if a.ProfessorID != "" {
				delete(o.prof, profSlotKey{a.ProfessorID, week, slot})
			}
			for _, g := range conflicts {
				delete(o.grp, groupSlotKey{g, week, slot})
			}
		}
		for _, g := range conflicts {
			key := groupDayKey{g, week, day}
			o.dayLoad[key] -= len(slots)
			if o.dayLoad[key] <= 0 {
				delete(o.dayLoad, key)
			}
		}
	}
}
