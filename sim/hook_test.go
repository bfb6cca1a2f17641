package sim

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

type recordingHook struct {
	id    int
	order *[]int
	last  HookCtx
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.last = ctx
	if h.order != nil {
		*h.order = append(*h.order, h.id)
	}
}

var _ = Describe("HookableBase", func() {
	var (
		domain *HookableBase
		pos    *HookPos
	)

	BeforeEach(func() {
		domain = &HookableBase{}
		pos = &HookPos{Name: "Test"}
	})

	It("should invoke hooks in registration order", func() {
		var order []int
		domain.AcceptHook(&recordingHook{id: 1, order: &order})
		domain.AcceptHook(&recordingHook{id: 2, order: &order})
		domain.InvokeHook(HookCtx{Domain: domain, Pos: pos})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should pass the context through", func() {
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		domain.InvokeHook(HookCtx{Domain: domain, Pos: pos, Detail: 42})

		got := hook.last
		Expect(got.Pos).To(BeIdenticalTo(pos))
		Expect(got.Detail).To(Equal(42))
	})

	It("should reject a hook registered twice", func() {
		hook := NewLogHook(nil)
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
		Expect(domain.Hooks()).To(HaveLen(1))
	})
})

var _ = Describe("LogHook", func() {
	It("should log the detail at debug level", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

		hook := NewLogHook(logger)
		hook.Func(HookCtx{Pos: &HookPos{Name: "CacheAccess"}, Detail: "0x10 hit"})

		Expect(buf.String()).To(ContainSubstring("pos=CacheAccess"))
		Expect(buf.String()).To(ContainSubstring("0x10 hit"))
	})

	It("should stay quiet above debug level", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.InfoLevel)

		NewLogHook(logger).Func(HookCtx{Detail: "x"})

		Expect(buf.Len()).To(BeZero())
	})
})
