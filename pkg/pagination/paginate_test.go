package pagination

import (
	"errors"
	"reflect"
	"testing"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		items    []int
		pageSize int
		want     [][]int
	}{
		{
			name:     "exact multiple",
			items:    []int{1, 2, 3, 4},
			pageSize: 2,
			want:     [][]int{{1, 2}, {3, 4}},
		},
		{
			name:     "short last page",
			items:    []int{1, 2, 3, 4, 5},
			pageSize: 2,
			want:     [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:     "page larger than input",
			items:    []int{1, 2, 3},
			pageSize: 50,
			want:     [][]int{{1, 2, 3}},
		},
		{
			name:     "page size one",
			items:    []int{7, 8},
			pageSize: 1,
			want:     [][]int{{7}, {8}},
		},
		{
			name:     "empty input",
			items:    []int{},
			pageSize: 3,
			want:     [][]int{},
		},
		{
			name:     "nil input",
			items:    nil,
			pageSize: 3,
			want:     [][]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Paginate(tt.items, tt.pageSize)
			if err != nil {
				t.Fatalf("Paginate() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Paginate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaginate_InvalidPageSize(t *testing.T) {
	for _, size := range []int{0, -1, -50} {
		_, err := Paginate([]string{"a"}, size)
		if !errors.Is(err, ErrInvalidPageSize) {
			t.Errorf("Paginate(size=%d) error = %v, want ErrInvalidPageSize", size, err)
		}
	}
}

func TestPaginate_Properties(t *testing.T) {
	items := make([]int, 137)
	for i := range items {
		items[i] = i
	}

	for pageSize := 1; pageSize <= 40; pageSize++ {
		pages, err := Paginate(items, pageSize)
		if err != nil {
			t.Fatalf("Paginate(size=%d) error = %v", pageSize, err)
		}

		var flat []int
		for i, page := range pages {
			if len(page) > pageSize {
				t.Errorf("size=%d: page %d has %d items", pageSize, i, len(page))
			}
			if i < len(pages)-1 && len(page) != pageSize {
				t.Errorf("size=%d: non-final page %d is short (%d)", pageSize, i, len(page))
			}
			flat = append(flat, page...)
		}

		if !reflect.DeepEqual(flat, items) {
			t.Errorf("size=%d: concatenated pages do not reproduce input", pageSize)
		}
	}
}

func TestPaginate_PagesDoNotAlias(t *testing.T) {
	items := []int{1, 2, 3, 4}
	pages, err := Paginate(items, 2)
	if err != nil {
		t.Fatal(err)
	}

	pages[0] = append(pages[0], 99)
	if items[2] != 3 {
		t.Errorf("appending to a page overwrote the next page: items = %v", items)
	}
}
