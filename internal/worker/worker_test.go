package worker

import "testing"

func TestSplitStoryWithMarker(t *testing.T) {
	opening, story := SplitStory("My Title", "This is the hook.\n---\nThis is the story.")

	if opening != "This is the hook." {
		t.Errorf("expected text before marker as opening, got %q", opening)
	}
	if story != "This is the story." {
		t.Errorf("expected text after marker as story, got %q", story)
	}
}

func TestSplitStoryMarkerWithWhitespace(t *testing.T) {
	opening, story := SplitStory("My Title", "Hook line.\n  ---  \nStory line.")

	if opening != "Hook line." || story != "Story line." {
		t.Errorf("marker line with surrounding whitespace should still split, got %q / %q", opening, story)
	}
}

func TestSplitStoryWithoutMarkerNarratesTitle(t *testing.T) {
	opening, story := SplitStory("My Title", "Just the story text.")

	if opening != "My Title" {
		t.Errorf("without a marker the title is the opening, got %q", opening)
	}
	if story != "Just the story text." {
		t.Errorf("story should pass through unchanged, got %q", story)
	}
}

func TestSplitStoryMarkerInsideLineIgnored(t *testing.T) {
	opening, story := SplitStory("Title", "the word --- inside a line")

	if opening != "Title" {
		t.Errorf("inline marker must not split, got opening %q", opening)
	}
	if story != "the word --- inside a line" {
		t.Errorf("story should pass through unchanged, got %q", story)
	}
}

func TestSplitStoryMultilineSections(t *testing.T) {
	opening, story := SplitStory("Title", "line one\nline two\n---\npart a\npart b")

	if opening != "line one\nline two" {
		t.Errorf("expected multiline opening preserved, got %q", opening)
	}
	if story != "part a\npart b" {
		t.Errorf("expected multiline story preserved, got %q", story)
	}
}
