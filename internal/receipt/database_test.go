package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		err error
	)

	BeforeEach(func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	sampleReceipt := func(id, hash string) *Receipt {
		total := 12.50
		return &Receipt{
			ID:          id,
			Filename:    id + "_receipt.png",
			ContentType: "image/png",
			FileHash:    hash,
			VendorName:  "ACME STORE",
			TotalAmount: &total,
			Confidence:  0.92,
			CreatedAt:   time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		}
	}

	Describe("SaveReceipt and GetReceipt", func() {
		When("the receipt exists", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(sampleReceipt("r1", "hash-1"))).To(Succeed())
			})

			It("round-trips the receipt", func() {
				got, getErr := db.GetReceipt("r1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(got.VendorName).To(Equal("ACME STORE"))
				Expect(got.TotalAmount).To(HaveValue(Equal(12.50)))
				Expect(got.FileHash).To(Equal("hash-1"))
			})
		})

		When("the receipt does not exist", func() {
			It("returns a not-found error", func() {
				_, getErr := db.GetReceipt("missing")
				Expect(getErr).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("FindReceiptByHash", func() {
		BeforeEach(func() {
			Expect(db.SaveReceipt(sampleReceipt("r1", "hash-1"))).To(Succeed())
			Expect(db.SaveReceipt(sampleReceipt("r2", "hash-2"))).To(Succeed())
		})

		When("a receipt with the hash exists", func() {
			It("returns it", func() {
				got, findErr := db.FindReceiptByHash("hash-2")
				Expect(findErr).NotTo(HaveOccurred())
				Expect(got.ID).To(Equal("r2"))
			})
		})

		When("no receipt with the hash exists", func() {
			It("returns a not-found error", func() {
				_, findErr := db.FindReceiptByHash("hash-3")
				Expect(findErr).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListReceipts", func() {
		When("the database is empty", func() {
			It("returns an empty slice", func() {
				receipts, listErr := db.ListReceipts()
				Expect(listErr).NotTo(HaveOccurred())
				Expect(receipts).To(BeEmpty())
			})
		})

		When("receipts exist", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(sampleReceipt("r1", "hash-1"))).To(Succeed())
				Expect(db.SaveReceipt(sampleReceipt("r2", "hash-2"))).To(Succeed())
			})

			It("returns all of them", func() {
				receipts, listErr := db.ListReceipts()
				Expect(listErr).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			Expect(db.SaveReceipt(sampleReceipt("r1", "hash-1"))).To(Succeed())
		})

		It("removes the receipt", func() {
			Expect(db.DeleteReceipt("r1")).To(Succeed())
			_, getErr := db.GetReceipt("r1")
			Expect(getErr).To(MatchError(ErrNotFound))
		})

		It("removes the hash index entry", func() {
			Expect(db.DeleteReceipt("r1")).To(Succeed())
			_, findErr := db.FindReceiptByHash("hash-1")
			Expect(findErr).To(MatchError(ErrNotFound))
		})

		It("allows re-uploading the same content afterwards", func() {
			Expect(db.DeleteReceipt("r1")).To(Succeed())
			Expect(db.SaveReceipt(sampleReceipt("r3", "hash-1"))).To(Succeed())
			got, findErr := db.FindReceiptByHash("hash-1")
			Expect(findErr).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("r3"))
		})
	})
})
