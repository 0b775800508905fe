package prompt_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mindfulware/companion/pkg/prompt"
)

var _ = Describe("Format", func() {
	Context("in generation mode (no assistant text)", func() {
		It("begins with the begin-of-text marker and the system header", func() {
			p := prompt.Format("P", "", "Hi", "")

			Expect(p).To(HavePrefix(prompt.BeginMarker + "<|start_header_id|>system<|end_header_id|>\n\nP"))
		})

		It("ends exactly with the assistant header so the model continues from there", func() {
			p := prompt.Format("P", "", "Hi", "")

			Expect(p).To(HaveSuffix(prompt.AssistantMarker + "\n\n"))
		})

		It("places the user text between user header and turn terminator", func() {
			p := prompt.Format("P", "", "How many sessions will I need?", "")

			Expect(p).To(ContainSubstring(
				"<|start_header_id|>user<|end_header_id|>\n\nHow many sessions will I need?" + prompt.TurnTerminator,
			))
		})
	})

	Context("with an empty context", func() {
		It("omits the Context line entirely", func() {
			p := prompt.Format("persona text", "", "hello", "")

			Expect(p).NotTo(ContainSubstring("Context:"))
		})
	})

	Context("with a non-empty context", func() {
		It("emits exactly one Context line", func() {
			p := prompt.Format("persona text", "Pre-session preparation", "hello", "")

			Expect(strings.Count(p, "Context: Pre-session preparation")).To(Equal(1))
		})

		It("places the context inside the system turn, before the user turn", func() {
			p := prompt.Format("persona text", "Treatment planning", "hello", "")

			ctxIdx := strings.Index(p, "Context: Treatment planning")
			userIdx := strings.Index(p, "<|start_header_id|>user<|end_header_id|>")
			sysIdx := strings.Index(p, "<|start_header_id|>system<|end_header_id|>")

			Expect(ctxIdx).To(BeNumerically(">", sysIdx))
			Expect(ctxIdx).To(BeNumerically("<", userIdx))
		})
	})

	Context("in training label mode (assistant text present)", func() {
		It("appends the assistant text and a final turn terminator", func() {
			p := prompt.Format("P", "", "Hi", "Hello there!")

			Expect(p).To(HaveSuffix("Hello there!" + prompt.TurnTerminator))
		})

		It("keeps the generation-mode prefix unchanged", func() {
			generation := prompt.Format("P", "C", "Hi", "")
			training := prompt.Format("P", "C", "Hi", "label")

			Expect(training).To(HavePrefix(generation))
		})
	})

	It("passes malformed-looking input through unchanged", func() {
		p := prompt.Format("P", "", "text with <|eot_id|> inside", "")

		Expect(p).To(ContainSubstring("text with <|eot_id|> inside"))
	})
})

var _ = Describe("ForGeneration and ForTraining", func() {
	It("always uses the fixed persona", func() {
		Expect(prompt.ForGeneration("", "Hi")).To(ContainSubstring(prompt.Persona))
		Expect(prompt.ForTraining("", "Hi", "Hello")).To(ContainSubstring(prompt.Persona))
	})
})

var _ = Describe("ExtractResponse", func() {
	It("returns the text after the assistant header, trimmed", func() {
		raw := "system stuff" + prompt.AssistantMarker + "\n\n  Hello there!  "

		Expect(prompt.ExtractResponse(raw)).To(Equal("Hello there!"))
	})

	It("round-trips a training prompt back to the trimmed assistant text", func() {
		p := prompt.ForTraining("Pre-session preparation", "What should I expect?", "  Take your time.\n")

		Expect(prompt.ExtractResponse(p)).To(Equal("Take your time."))
	})

	It("returns the trimmed input unchanged when the marker is absent", func() {
		Expect(prompt.ExtractResponse("  no markers here  ")).To(Equal("no markers here"))
	})

	It("uses the last occurrence when the marker is echoed earlier", func() {
		raw := "user echoed " + prompt.AssistantMarker + " in their message" +
			prompt.AssistantMarker + "\n\nthe real reply"

		Expect(prompt.ExtractResponse(raw)).To(Equal("the real reply"))
	})

	It("drops a trailing turn terminator left in by the runtime", func() {
		raw := prompt.AssistantMarker + "\n\nreply text" + prompt.TurnTerminator

		Expect(prompt.ExtractResponse(raw)).To(Equal("reply text"))
	})
})
