package pagination

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		req       PageRequest
		wantData  []int
		wantPages int
	}{
		{name: "first page", req: PageRequest{Page: 1, PageSize: 2}, wantData: []int{1, 2}, wantPages: 3},
		{name: "last partial page", req: PageRequest{Page: 3, PageSize: 2}, wantData: []int{5}, wantPages: 3},
		{name: "past the end", req: PageRequest{Page: 4, PageSize: 2}, wantData: []int{}, wantPages: 3},
		{name: "single page", req: PageRequest{Page: 1, PageSize: 20}, wantData: []int{1, 2, 3, 4, 5}, wantPages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.req)
			if diff := cmp.Diff(tt.wantData, got.Data); diff != "" {
				t.Errorf("Data mismatch (-want +got):\n%s", diff)
			}
			if got.TotalItems != 5 || got.TotalPages != tt.wantPages {
				t.Errorf("TotalItems=%d TotalPages=%d, want 5 and %d", got.TotalItems, got.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestSlice_Empty(t *testing.T) {
	req := PageRequest{}
	req.Defaults()
	got := Slice([]string(nil), req)
	if got.Data == nil || len(got.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %#v", got.Data)
	}
	if got.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", got.TotalPages)
	}
}
