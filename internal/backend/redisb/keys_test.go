package redisb

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "item key",
			got:  itemKey("alice", "b1"),
			want: "bookshelf:owner:alice:item:b1",
		},
		{
			name: "all items key",
			got:  allItemsKey("alice"),
			want: "bookshelf:owner:alice:items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
