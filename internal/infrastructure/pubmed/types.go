package pubmed

// XML shapes for the efetch record set. Only the fields the normalizer needs
// are mapped; the rest of the DTD is ignored.

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID          string            `xml:"MedlineCitation>PMID"`
	Title         string            `xml:"MedlineCitation>Article>ArticleTitle"`
	AbstractTexts []string          `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Authors       []pubmedAuthor    `xml:"MedlineCitation>Article>AuthorList>Author"`
	Journal       string            `xml:"MedlineCitation>Article>Journal>Title"`
	PubDate       pubmedDate        `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate"`
	ArticleIDs    []pubmedArticleID `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type pubmedDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type pubmedArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

func (a pubmedArticle) doi() string {
	for _, id := range a.ArticleIDs {
		if id.IDType == "doi" {
			return id.Value
		}
	}
	return ""
}
