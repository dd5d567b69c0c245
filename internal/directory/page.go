package directory

// PageRequest selects a window of results. StartIndex is 1-based.
type PageRequest struct {
	StartIndex int
	Count      int
}

// UserPage is one page of users plus the size of the full result.
type UserPage struct {
	TotalResults int
	StartIndex   int
	Resources    []*UserRecord
}

// Paginate returns the users of snap selected by req. A nil req returns
// every user. TotalResults is always the full snapshot size.
//
// Position p (1-based, snapshot order) is included when
// StartIndex <= p < StartIndex+Count, so at most Count users are returned.
func Paginate(snap *Snapshot, req *PageRequest) UserPage {
	page := UserPage{
		TotalResults: snap.Len(),
		StartIndex:   1,
		Resources:    []*UserRecord{},
	}

	if req == nil {
		page.Resources = snap.All()
		return page
	}

	page.StartIndex = req.StartIndex
	start := req.StartIndex
	end := req.StartIndex + req.Count

	snap.each(func(pos int, u *UserRecord) bool {
		if pos >= start && pos < end {
			page.Resources = append(page.Resources, u)
			return true
		}
		return pos <= end
	})

	return page
}
