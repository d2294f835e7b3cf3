package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/zeozeozeo/gon64/emulator"
)

func main() {
	// parse arguments
	romPath := flag.String("rom", "rom.z64", "path to the ROM file")
	savePath := flag.String("save", "", "path to the save RAM file (default \"<rom>.sav\")")
	scale := flag.Int("scale", 1, "window scale factor")
	flag.Parse()

	if *savePath == "" {
		*savePath = *romPath + ".sav"
	}

	// start emulator
	cart := loadCartridge(*romPath)
	loadSave(cart, *savePath)
	console := emulator.NewConsole(cart)

	ebiten.SetWindowSize(640*(*scale), 480*(*scale))
	ebiten.SetWindowTitle(cart.Title)
	if err := ebiten.RunGame(console.NewEbitenFrontend()); err != nil {
		log.Fatal(err)
	}

	writeSave(cart, *savePath)
}

func loadCartridge(path string) *emulator.Cartridge {
	log.Printf("loading rom \"%s\"", path)
	start := time.Now()

	// read rom
	file, err := os.Open(path)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	// load cartridge
	cart, err := emulator.LoadCartridge(file)
	if err != nil {
		panic(err)
	}

	log.Printf("loaded \"%s\" (%s) in %s", cart.Title, cart.Region, time.Since(start))
	return cart
}

func loadSave(cart *emulator.Cartridge, path string) {
	if cart.SaveType == emulator.SAVE_NONE {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// no save file yet
		return
	}
	if err := cart.LoadSave(data); err != nil {
		log.Printf("ignoring save file \"%s\": %v", path, err)
		return
	}
	log.Printf("loaded save RAM from \"%s\"", path)
}

func writeSave(cart *emulator.Cartridge, path string) {
	if cart.SaveType == emulator.SAVE_NONE {
		return
	}

	if err := os.WriteFile(path, cart.SaveData(), 0644); err != nil {
		log.Printf("failed to write save RAM to \"%s\": %v", path, err)
		return
	}
	log.Printf("wrote save RAM to \"%s\"", path)
}
