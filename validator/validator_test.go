package validator_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workforge/workforge/job"
	"github.com/workforge/workforge/validator"
)

func mustAdd(g *job.Graph, j *job.Job) {
	Expect(g.Add(j)).To(Succeed())
}

var _ = Describe("Validate", func() {
	It("accepts a well-formed graph", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("fetch", "fetcher"))
		mustAdd(g, job.New("store", "storer").Needs("fetch").InputsFromJob("fetch").OutputsToWorkflow())

		Expect(validator.Validate(g)).To(Succeed())
	})

	It("rejects a dependency on an unknown job", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("store", "storer").Needs("missing").OutputsToWorkflow())

		err := validator.Validate(g)
		var verr *validator.Error
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Issues).To(ContainElement(HaveField("JobName", "store")))
	})

	It("rejects an inputsFromJob reference to an unknown job", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("store", "storer").InputsFromJob("ghost").OutputsToWorkflow())

		Expect(validator.Validate(g)).NotTo(Succeed())
	})

	It("rejects a fallbackTo reference to an unknown job", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("store", "storer").FallbackTo("ghost").OutputsToWorkflow())

		Expect(validator.Validate(g)).NotTo(Succeed())
	})

	It("detects a circular dependency", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("a", "w").Needs("b").OutputsToWorkflow())
		mustAdd(g, job.New("b", "w").Needs("a"))

		Expect(validator.Validate(g)).NotTo(Succeed())
	})

	It("rejects a graph with no terminal job", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("fetch", "fetcher"))
		mustAdd(g, job.New("store", "storer").Needs("fetch"))

		err := validator.Validate(g)
		var verr *validator.Error
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Issues).To(ContainElement(HaveField("Message", "graph has no terminal job (outputsToWorkflow or terminatesWorkflow)")))
	})

	It("rejects a graph with no start job", func() {
		g := job.NewGraph()
		mustAdd(g, job.New("a", "w").Needs("b").OutputsToWorkflow())
		mustAdd(g, job.New("b", "w").Needs("a"))

		Expect(validator.Validate(g)).NotTo(Succeed())
	})

	It("passes an empty graph", func() {
		g := job.NewGraph()
		Expect(validator.Validate(g)).To(Succeed())
	})
})
