package digest

import (
	"fmt"

	"BioDigest/internal/domain"
)

// Prompt templates for the two digest modes. Placeholders, in order:
// period label, window start, window end, article count, items JSON.

const concisePrompt = `Based on the biomedical article data below, produce a professional research digest in Markdown.

Requirements:
1. Write concise, professional prose.
2. Emphasize oncology-related advances.
3. Summarize every article accurately.
4. Call out the novelty and clinical relevance of each study.
5. Keep a clear hierarchical structure.

---

# Biomedical Research Digest

## Period: %s
## Time range: %s ~ %s
## Articles: %d

---

## 1. Research Highlights

Summarize the main topics and trends of this period (100-150 words).

---

## 2. Article Briefings

For every article provide:
- **Title**: [article title]
- **Authors**: [first three authors]
- **Field**: [tumor type / research area]
- **Key findings**: [3-4 sentences on the main results]
- **Novelty**: [1-2 sentences on what is new]
- **Clinical relevance**: [application or future direction]

(Produce this briefing for all articles.)

---

## 3. Trend Insights

- **Hot directions**: [the most active research directions]
- **Emerging methods**: [new technologies or methods mentioned]
- **Potential breakthroughs**: [studies likely to have outsized impact]

---

## 4. Article Links

(List every article title with its link.)

---

Source items for this period (JSON):

%s

---

Important:
1. Base all content strictly on the provided article data; never invent facts.
2. Use precise biomedical terminology.
3. Keep an objective, accurate, concise academic tone.
4. If an article falls outside oncology, still summarize it and name its field.

Begin the digest now:`

const deepPrompt = `Based on the biomedical article data below, produce an in-depth research analysis in Markdown.

Requirements:
1. Write rigorous, professional prose.
2. Emphasize oncology-related advances.
3. Follow the per-article structure exactly; do not merge or skip sections.
4. Extract every quantitative result present in the abstracts.
5. Tag the biological entities named in each study.

---

# Biomedical Research Deep Analysis

## Period: %s
## Time range: %s ~ %s
## Articles: %d

---

## 1. Research Highlights

Summarize the main topics and trends of this period (150-200 words).

---

## 2. Article Deep Dives

For every article use exactly this structure:
- **Title**: [article title]
- **Authors**: [first three authors]
- **Field**: [tumor type / research area]
- **Background**: [the problem the study addresses]
- **Approach**: [models, cohorts, and methods used]
- **Quantitative results**: [every effect size, percentage, cohort size, p-value or score reported in the abstract; write "none reported" when the abstract carries no numbers]
- **Entities**: [genes, proteins, drugs, cell types and diseases mentioned]
- **Relevance score**: [1-5 with a one-line justification]
- **Clinical relevance**: [application or future direction]

---

## 3. Trend Insights

- **Hot directions**: [the most active research directions]
- **Emerging methods**: [new technologies or methods mentioned]
- **Potential breakthroughs**: [studies likely to have outsized impact]

---

## 4. Article Links

(List every article title with its link.)

---

Source items for this period (JSON):

%s

---

Important:
1. Base all content strictly on the provided article data; never invent facts or numbers.
2. Use precise biomedical terminology.
3. Keep an objective, accurate academic tone.
4. If an article falls outside oncology, still analyze it and name its field.

Begin the analysis now:`

// BuildPrompt populates the template selected by mode.
func BuildPrompt(mode domain.DigestMode, periodLabel, since, now string, total int, itemsJSON string) string {
	template := concisePrompt
	if mode == domain.ModeDeep {
		template = deepPrompt
	}
	return fmt.Sprintf(template, periodLabel, since, now, total, itemsJSON)
}
