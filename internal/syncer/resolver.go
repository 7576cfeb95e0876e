package syncer

import (
	"strings"

	"github.com/dvloznov/budget-sync/internal/domain"
)

// resolveAccount matches a draft's account name against the reference list,
// case-insensitively. First match wins; the list order is the order the
// ledger returned. An unresolved account invalidates the draft.
func resolveAccount(accounts []domain.Account, name string) (domain.Account, bool) {
	for _, acc := range accounts {
		if strings.EqualFold(acc.Name, name) {
			return acc, true
		}
	}
	return domain.Account{}, false
}

// resolveCategory matches a draft's category name the same way. An absent or
// unresolved category is tolerated; the draft proceeds uncategorized.
func resolveCategory(categories []domain.Category, name string) (domain.Category, bool) {
	if name == "" {
		return domain.Category{}, false
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, name) {
			return cat, true
		}
	}
	return domain.Category{}, false
}
