package trace

import (
	"context"
	"database/sql"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl     *gomock.Controller
		dataRecorder *MockDataRecorder
		tracer       *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		dataRecorder = NewMockDataRecorder(mockCtrl)

		dataRecorder.EXPECT().CreateTable(AccessTable, AccessEntry{})
		dataRecorder.EXPECT().CreateTable(SummaryTable, SummaryEntry{})

		tracer = NewDBTracer(dataRecorder)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record an eviction", func() {
		dataRecorder.EXPECT().InsertData(AccessTable, AccessEntry{
			Seq:        3,
			Cache:      "L1D",
			Address:    "0x1f0",
			Tag:        "0x1f",
			SetID:      1,
			WayID:      0,
			Outcome:    "miss eviction",
			EvictedTag: "0x2",
		})

		tracer.Func(sim.HookCtx{
			Pos:  cache.HookPosAccess,
			Item: "L1D",
			Detail: cache.AccessDetail{
				Seq:        3,
				Address:    0x1f0,
				Tag:        0x1f,
				SetID:      1,
				Outcome:    cache.MissEviction,
				EvictedTag: 0x2,
			},
		})
	})

	It("should leave the evicted tag empty without an eviction", func() {
		dataRecorder.EXPECT().InsertData(AccessTable, gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(AccessEntry).EvictedTag).To(BeEmpty())
				Expect(entry.(AccessEntry).Outcome).To(Equal("hit"))
			})

		tracer.Func(sim.HookCtx{
			Pos:    cache.HookPosAccess,
			Detail: cache.AccessDetail{Outcome: cache.Hit},
		})
	})

	It("should ignore other hook positions", func() {
		tracer.Func(sim.HookCtx{
			Pos:    &sim.HookPos{Name: "Other"},
			Detail: cache.AccessDetail{},
		})
	})

	It("should record and flush the summary", func() {
		gomock.InOrder(
			dataRecorder.EXPECT().InsertData(SummaryTable, SummaryEntry{
				Cache:     "L1D",
				SetBits:   4,
				BlockBits: 4,
				Ways:      1,
				Hits:      4,
				Misses:    5,
				Evictions: 3,
			}),
			dataRecorder.EXPECT().Flush(),
		)

		tracer.RecordSummary("L1D",
			cache.Config{SetBits: 4, BlockBits: 4, Ways: 1},
			cache.Stats{Hits: 4, Misses: 5, Evictions: 3})
	})
})

var _ = Describe("DBTracer with SQLite", func() {
	It("should record every access of a replay", func() {
		path := filepath.Join(GinkgoT().TempDir(), "accesses.sqlite3")
		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())

		recorder := datarecording.NewWithDB(db)
		tracer := NewDBTracer(recorder)

		engine, err := cache.MakeBuilder().Build("Cache")
		Expect(err).NotTo(HaveOccurred())
		engine.AcceptHook(tracer)

		summary, err := NewReplayer(engine).ReplayRecords([]Record{
			{Kind: KindLoad, Address: 0x0},
			{Kind: KindModify, Address: 0x10},
		})
		Expect(err).NotTo(HaveOccurred())
		tracer.RecordSummary(engine.Name(), engine.Config(), summary.Stats)

		reader := datarecording.NewReaderWithDB(db)
		reader.MapTable(AccessTable, AccessEntry{})
		reader.MapTable(SummaryTable, SummaryEntry{})

		results, total, err := reader.Query(context.Background(), AccessTable,
			datarecording.QueryParams{OrderBy: "Seq"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))
		Expect(results[1].(*AccessEntry).Outcome).To(Equal("miss eviction"))
		Expect(results[1].(*AccessEntry).EvictedTag).To(Equal("0x0"))
		Expect(results[2].(*AccessEntry).Outcome).To(Equal("hit"))

		summaries, _, err := reader.Query(context.Background(), SummaryTable,
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].(*SummaryEntry).Evictions).To(Equal(uint64(1)))

		Expect(recorder.Close()).To(Succeed())
	})
})
