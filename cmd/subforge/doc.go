// Command subforge transcribes, translates, and renders subtitle tracks,
// and can dub a video with synthesized speech in the target language.
package main
