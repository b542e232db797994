package session

import (
	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/flow"
)

// StaticPages resolves pages from a fixed table. Keys are either
// "flowType.activity" or a bare flow type; the more specific key wins
type StaticPages map[string]string

var _ api.PageResolver = StaticPages(nil)

// Page implements api.PageResolver
func (p StaticPages) Page(ref api.FlowRef) string {
	if inst, ok := ref.(*flow.Instance); ok && !inst.IsCompleted() {
		if a, ok := inst.CurrentActivity(); ok {
			if page, ok := p[ref.FlowType()+"."+a.Name]; ok {
				return page
			}
		}
	}
	return p[ref.FlowType()]
}
