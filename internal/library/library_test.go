package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const zoteroFixture = "\ufeff\"Key\",\"Item Type\",\"Publication Year\",\"Author\",\"Title\",\"Publication Title\",\"DOI\",\"Url\",\"Manual Tags\",\"Date Added\"\n" +
	"\"KJS7VDEU\",\"journalArticle\",\"2020\",\"Gloaguen, Yoann; Morton, Fraser\",\"Metabolomics pipelines at scale\",\"Bioinformatics\",\"10.1093/bioinformatics/btaa001\",\"https://example.org/pipelines\",\"+Tools; workflow\",\"2020-03-14 17:48:40\"\n" +
	"\"AB12CD34\",\"journalArticle\",\"\",\"\",\"\",\"\",\"\",\"\",\"\",\"2021-01-01 00:00:00\"\n"

func TestParseZoteroCSV(t *testing.T) {
	pubs, errs := ParseZoteroCSV([]byte(zoteroFixture))
	if len(errs) != 1 {
		t.Errorf("errs = %v, want 1 for the empty row", errs)
	}
	if len(pubs) != 1 {
		t.Fatalf("pubs = %d, want 1", len(pubs))
	}

	p := pubs[0]
	if p.Title != "Metabolomics pipelines at scale" {
		t.Errorf("Title = %q, BOM handling broken?", p.Title)
	}
	if p.Authors != "Gloaguen, Yoann; Morton, Fraser" {
		t.Errorf("Authors = %q", p.Authors)
	}
	if p.DOI != "10.1093/bioinformatics/btaa001" {
		t.Errorf("DOI = %q", p.DOI)
	}
	if p.Year != "2020" || p.Journal != "Bioinformatics" {
		t.Errorf("Year/Journal = %q/%q", p.Year, p.Journal)
	}
	if p.Origin != string(TypeZoteroCSV) {
		t.Errorf("Origin = %q", p.Origin)
	}
}

func TestParseZoteroCSV_MissingTitleColumn(t *testing.T) {
	_, errs := ParseZoteroCSV([]byte("\"Key\",\"DOI\"\n\"X\",\"10.1/x\"\n"))
	if len(errs) == 0 {
		t.Fatal("expected an error for a CSV without a Title column")
	}
	if !strings.Contains(errs[0].Error(), "Title") {
		t.Errorf("error = %v", errs[0])
	}
}

func TestParseCiteULikeJSON(t *testing.T) {
	fixture := `[
	  {
	    "article_id": "14220817",
	    "title": "Galaxy platforms for accessible research",
	    "doi": "10.1093/nar/gky379",
	    "href": "http://www.citeulike.org/group/16008/article/14220817",
	    "authors": ["Enis Afgan", "Dannon Baker"],
	    "published": ["2018", "07", "02"],
	    "journal": "Nucleic Acids Research",
	    "tags": ["methods"],
	    "date": "2018-06-22 00:18:58"
	  },
	  {
	    "article_id": "99",
	    "title": "",
	    "authors": []
	  }
	]`

	pubs, errs := ParseCiteULikeJSON([]byte(fixture))
	if len(errs) != 1 {
		t.Errorf("errs = %v, want 1 for the empty entry", errs)
	}
	if len(pubs) != 1 {
		t.Fatalf("pubs = %d, want 1", len(pubs))
	}

	p := pubs[0]
	if p.Title != "Galaxy platforms for accessible research" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Authors != "Enis Afgan; Dannon Baker" {
		t.Errorf("Authors = %q", p.Authors)
	}
	if p.Year != "2018" {
		t.Errorf("Year = %q, want first published element", p.Year)
	}
	if p.DOI != "10.1093/nar/gky379" {
		t.Errorf("DOI = %q", p.DOI)
	}
}

func TestParseCiteULikeJSON_Malformed(t *testing.T) {
	_, errs := ParseCiteULikeJSON([]byte(`{"not": "an array"}`))
	if len(errs) == 0 {
		t.Fatal("expected an error for non-array JSON")
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.csv")
	if err := os.WriteFile(path, []byte(zoteroFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	pubs, _ := Read(TypeZoteroCSV, path)
	if len(pubs) != 1 {
		t.Errorf("Read() = %d pubs, want 1", len(pubs))
	}

	if _, errs := Read(Type("endnote-xml"), path); len(errs) == 0 {
		t.Error("Read(unknown type) returned no error")
	}

	if _, errs := Read(TypeZoteroCSV, filepath.Join(dir, "missing.csv")); len(errs) == 0 {
		t.Error("Read(missing file) returned no error")
	}
}
