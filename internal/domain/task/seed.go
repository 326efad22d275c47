package task

// Seed は起動時に投入する初期データ。次に払い出される ID は 3 になる。
func Seed() []*Task {
	return []*Task{
		{ID: 1, Title: "Apprendre Docker", Completed: false},
		{ID: 2, Title: "Créer une API", Completed: true},
	}
}
