package controllers

import (
	"net/http"
	"testing"

	"github.com/ecotrail/api-go/services"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind services.Kind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindParse, http.StatusBadRequest},
		{services.KindAlreadyCompleted, http.StatusBadRequest},
		{services.KindAuth, http.StatusUnauthorized},
		{services.KindNotFound, http.StatusNotFound},
		{services.KindConflict, http.StatusConflict},
		{services.KindInternal, http.StatusInternalServerError},
		{services.Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		page, size int
		total      int64
		wantPages  int
	}{
		{1, 10, 0, 0},
		{1, 10, 10, 1},
		{2, 10, 11, 2},
		{1, 50, 101, 3},
	}
	for _, tt := range tests {
		got := newPageMeta(tt.page, tt.size, tt.total)
		if got.TotalPages != tt.wantPages || got.TotalItems != tt.total || got.CurrentPage != tt.page || got.PageSize != tt.size {
			t.Errorf("newPageMeta(%d, %d, %d) = %+v, want %d pages", tt.page, tt.size, tt.total, got, tt.wantPages)
		}
	}
}
