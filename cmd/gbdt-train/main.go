// Command gbdt-train demonstrates a single gbdt.BuildTree call over
// npy-backed feature and target arrays. It is not a multi-round
// booster — it computes one fixed mean-squared-error gradient/hessian pass
// against the target array as caller-side convenience so the tool is
// runnable end-to-end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/shardboost/gbdt/gbdt"
	"github.com/shardboost/gbdt/shardrt"
)

func decodeConfig(srcConfig string, out interface{}) {
	file, err := os.Open(srcConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(out); err != nil {
		log.Fatal(err)
	}
}

func readNpy(fileName string) *mat.Dense {
	f, err := os.Open(fileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		log.Fatal(err)
	}
	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		log.Fatal(err)
	}
	return denseMat
}

func denseToTensor(m *mat.Dense) *tensor.Dense {
	rows, cols := m.Dims()
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = m.At(i, j)
		}
	}
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(data))
}

// mseGradHess computes a single squared-loss gradient/hessian pass against
// target, assuming a zero initial prediction (g = -target, h = 1).
func mseGradHess(target *mat.Dense) (g, h *mat.Dense) {
	rows, cols := target.Dims()
	g = mat.NewDense(rows, cols, nil)
	h = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			g.Set(i, j, -target.At(i, j))
			h.Set(i, j, 1)
		}
	}
	return g, h
}

// TrainConfig describes one single-shard, single-tree build.
type TrainConfig struct {
	FileNameFeatures string  `json:"filename_features"`
	FileNameTarget   string  `json:"filename_target"`
	FileNameModel    string  `json:"filename_model"`
	MaxDepth         int32   `json:"max_depth"`
	Alpha            float64 `json:"alpha"`
	SplitSamples     int32   `json:"split_samples"`
	Seed             int64   `json:"seed"`
	FigureFileName   string  `json:"figure_filename"`
}

func train(srcConfig string) {
	var cfg TrainConfig
	decodeConfig(srcConfig, &cfg)

	features := readNpy(cfg.FileNameFeatures)
	target := readNpy(cfg.FileNameTarget)
	g, h := mseGradHess(target)

	rows, _ := features.Dims()
	x := denseToTensor(features)

	coord := shardrt.NewCoordinator(1)
	reducer := coord.Handle(0)

	params := gbdt.Params{
		MaxDepth:     cfg.MaxDepth,
		MaxNodes:     int32(gbdt.MaxNodesForDepth(int(cfg.MaxDepth))),
		Alpha:        cfg.Alpha,
		SplitSamples: cfg.SplitSamples,
		Seed:         cfg.Seed,
		DatasetRows:  int64(rows),
	}

	tree, err := gbdt.Dispatch(context.Background(), reducer, x, 0, g, h, params)
	if err != nil {
		log.Fatal(err)
	}

	if err := gbdt.Save(tree, cfg.FileNameModel); err != nil {
		log.Fatal(err)
	}

	if cfg.FigureFileName != "" {
		if err := gbdt.RenderTree(tree, cfg.FigureFileName, "svg"); err != nil {
			log.Fatal(err)
		}
	}
}

type GraphConfig struct {
	FileNameModel  string `json:"filename_model"`
	FigureFileName string `json:"figure_filename"`
	FigureType     string `json:"figure_type"`
}

func graph(srcConfig string) {
	var cfg GraphConfig
	decodeConfig(srcConfig, &cfg)

	tree, err := gbdt.LoadTree(cfg.FileNameModel)
	if err != nil {
		log.Fatal(err)
	}
	if err := gbdt.RenderTree(tree, cfg.FigureFileName, cfg.FigureType); err != nil {
		log.Fatal(err)
	}
}

func main() {
	runMode := flag.String("mode", "train", "either 'train' or 'graph'")
	config := flag.String("config", "gbdt_config.json", "a config file for the run of the program")
	flag.Parse()

	modes := map[string]func(string){
		"train": train,
		"graph": graph,
	}
	run, ok := modes[*runMode]
	if !ok {
		log.Fatalf("unknown mode %q", *runMode)
	}
	run(*config)
}
