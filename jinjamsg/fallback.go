package jinjamsg

import "golang.org/x/text/language"

// fallbacks returns the canonical form of locale followed by the more
// general locales that may substitute for it. For example, "sr_Latn_RS"
// yields "sr-Latn-RS", "sr-Latn" and "sr".
func fallbacks(locale string) ([]string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	var tags []language.Tag
	lang, script, region := tag.Raw()
	// Raw reports ZZ for an unspecified region, and Zzzz for a script.
	if region.String() != "ZZ" {
		t, _ := language.Compose(lang, script, region)
		tags = append(tags, t)
	}
	if script.String() != "Zzzz" {
		t, _ := language.Compose(lang, script)
		tags = append(tags, t)
	}
	t, _ := language.Compose(lang)
	tags = append(tags, t)

	var result []string
	for _, t := range tags {
		result = append(result, t.String())
	}
	return result, nil
}
